package cpu

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultSysfsRoot caminho padrão do subsistema de CPUs no sysfs
const DefaultSysfsRoot = "/sys/devices/system/cpu"

// SysfsPool controla CPUs via /sys/devices/system/cpu/cpuN/online.
// A CPU 0 não possui arquivo "online" na maioria dos kernels e é
// tratada como sempre online.
type SysfsPool struct {
	root  string
	count int
}

// NewSysfsPool cria um pool a partir do sysfs. Falha se nenhuma CPU
// for encontrada (fatal para o startup do controller).
func NewSysfsPool(root string) (*SysfsPool, error) {
	if root == "" {
		root = DefaultSysfsRoot
	}

	count := 0
	for {
		if _, err := os.Stat(filepath.Join(root, fmt.Sprintf("cpu%d", count))); err != nil {
			break
		}
		count++
	}

	if count == 0 {
		return nil, fmt.Errorf("no CPUs found under %s", root)
	}

	log.Info().
		Str("root", root).
		Int("cpus", count).
		Msg("Sysfs CPU pool initialized")

	return &SysfsPool{root: root, count: count}, nil
}

// Count retorna o total de CPUs detectadas
func (p *SysfsPool) Count() int {
	return p.count
}

// IsOnline lê o arquivo online da CPU. CPU sem arquivo (cpu0) é online.
func (p *SysfsPool) IsOnline(cpu int) (bool, error) {
	if cpu < 0 || cpu >= p.count {
		return false, fmt.Errorf("cpu %d out of range [0,%d)", cpu, p.count)
	}

	data, err := os.ReadFile(p.onlinePath(cpu))
	if err != nil {
		if os.IsNotExist(err) {
			// CPU de boot, sempre online
			return true, nil
		}
		return false, fmt.Errorf("failed to read online state of cpu%d: %w", cpu, err)
	}

	return strings.TrimSpace(string(data)) == "1", nil
}

// SetOnline escreve 0/1 no arquivo online da CPU
func (p *SysfsPool) SetOnline(cpu int, online bool) error {
	if cpu < 0 || cpu >= p.count {
		return fmt.Errorf("cpu %d out of range [0,%d)", cpu, p.count)
	}
	if cpu == 0 {
		if online {
			return nil
		}
		return fmt.Errorf("cpu0 cannot be taken offline")
	}

	value := "0"
	if online {
		value = "1"
	}

	if err := os.WriteFile(p.onlinePath(cpu), []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to set cpu%d online=%v: %w", cpu, online, err)
	}

	return nil
}

// OnlineCount conta CPUs online. Erros de leitura contam como offline.
func (p *SysfsPool) OnlineCount() int {
	online := 0
	for cpu := 0; cpu < p.count; cpu++ {
		up, err := p.IsOnline(cpu)
		if err != nil {
			log.Warn().Err(err).Int("cpu", cpu).Msg("Failed to read CPU state")
			continue
		}
		if up {
			online++
		}
	}
	return online
}

func (p *SysfsPool) onlinePath(cpu int) string {
	return filepath.Join(p.root, fmt.Sprintf("cpu%d", cpu), "online")
}
