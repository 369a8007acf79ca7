package cpu

import (
	"fmt"
	"sync"
)

// FakePool implementação em memória do Pool, usada em testes e no
// modo demo (sem acesso ao sysfs).
type FakePool struct {
	mu     sync.Mutex
	online []bool

	// Transitions registra cada SetOnline aplicado, na ordem
	Transitions []string
}

// NewFakePool cria um pool com count CPUs; apenas a CPU 0 começa online
func NewFakePool(count int) *FakePool {
	online := make([]bool, count)
	online[0] = true
	return &FakePool{online: online}
}

func (p *FakePool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.online)
}

func (p *FakePool) IsOnline(cpu int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cpu < 0 || cpu >= len(p.online) {
		return false, fmt.Errorf("cpu %d out of range", cpu)
	}
	return p.online[cpu], nil
}

func (p *FakePool) SetOnline(cpu int, online bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cpu < 0 || cpu >= len(p.online) {
		return fmt.Errorf("cpu %d out of range", cpu)
	}
	if cpu == 0 && !online {
		return fmt.Errorf("cpu0 cannot be taken offline")
	}
	p.online[cpu] = online

	dir := "down"
	if online {
		dir = "up"
	}
	p.Transitions = append(p.Transitions, fmt.Sprintf("cpu%d:%s", cpu, dir))
	return nil
}

func (p *FakePool) OnlineCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, up := range p.online {
		if up {
			n++
		}
	}
	return n
}

// TransitionLog retorna uma cópia do log de transições
func (p *FakePool) TransitionLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Transitions))
	copy(out, p.Transitions)
	return out
}

// SetAll força o estado de todas as CPUs (exceto a 0, sempre online)
func (p *FakePool) SetAll(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.online {
		p.online[i] = online || i == 0
	}
}
