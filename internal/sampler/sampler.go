package sampler

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// LoadScale fator de escala fixa aplicado às amostras para evitar
// aritmética fracionária na média (valor ×100)
const LoadScale = 100

// Sampler lê o sinal de carga instantânea uma vez por ciclo de decisão.
// O valor retornado já vem escalado por LoadScale.
type Sampler interface {
	Sample() (uint64, error)
}

// ProcStatSampler lê o número de tarefas executáveis do /proc/loadavg
// (quarto campo, numerador), a contagem de tarefas prontas para rodar.
type ProcStatSampler struct {
	path string
}

// NewProcStatSampler cria o sampler; path vazio usa /proc/loadavg
func NewProcStatSampler(path string) *ProcStatSampler {
	if path == "" {
		path = "/proc/loadavg"
	}
	return &ProcStatSampler{path: path}
}

// Sample retorna runnable_tasks * LoadScale
func (s *ProcStatSampler) Sample() (uint64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return parseRunnable(string(data))
}

// parseRunnable extrai o numerador do campo "running/total" do loadavg
func parseRunnable(content string) (uint64, error) {
	fields := strings.Fields(content)
	if len(fields) < 4 {
		return 0, fmt.Errorf("malformed loadavg line: %q", content)
	}

	frac := fields[3]
	slash := strings.IndexByte(frac, '/')
	if slash < 0 {
		return 0, fmt.Errorf("malformed runnable field: %q", frac)
	}

	running, err := strconv.ParseUint(frac[:slash], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed runnable count %q: %w", frac[:slash], err)
	}

	return running * LoadScale, nil
}

// FakeSampler devolve uma sequência pré-programada de amostras.
// Quando a sequência esgota, repete o último valor.
type FakeSampler struct {
	mu      sync.Mutex
	samples []uint64
	pos     int
}

// NewFakeSampler cria o sampler com os valores dados (já escalados)
func NewFakeSampler(samples ...uint64) *FakeSampler {
	return &FakeSampler{samples: samples}
}

func (s *FakeSampler) Sample() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) == 0 {
		return 0, nil
	}
	v := s.samples[s.pos]
	if s.pos < len(s.samples)-1 {
		s.pos++
	}
	return v, nil
}

// Set substitui a sequência e reinicia a posição
func (s *FakeSampler) Set(samples ...uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = samples
	s.pos = 0
}
