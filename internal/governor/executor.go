package governor

import (
	"github.com/rs/zerolog/log"

	"cpu-hotplug-manager/internal/cpu"
)

// Executor aplica as transições decididas contra o pool de CPUs.
// Apenas o executor muda estado online/offline; uma transição de cada
// vez, serializada pelas reservas do scheduler.
type Executor struct {
	pool cpu.Pool
}

// NewExecutor cria o executor sobre o pool dado
func NewExecutor(pool cpu.Pool) *Executor {
	return &Executor{pool: pool}
}

// OnlineAll liga todas as CPUs que não estão online. Retorna quantas
// subiram. Erros individuais são logados e o restante continua.
func (e *Executor) OnlineAll() int {
	changed := 0
	for c := 0; c < e.pool.Count(); c++ {
		up, err := e.pool.IsOnline(c)
		if err != nil {
			log.Warn().Err(err).Int("cpu", c).Msg("Failed to read CPU state")
			continue
		}
		if up {
			continue
		}
		if err := e.pool.SetOnline(c, true); err != nil {
			log.Error().Err(err).Int("cpu", c).Msg("Failed to bring CPU online")
			continue
		}
		log.Debug().Int("cpu", c).Msg("CPU up")
		changed++
	}
	return changed
}

// OnlineSingle liga a primeira CPU offline depois da primária.
// Sem CPU elegível é um no-op silencioso (retorna -1, false).
func (e *Executor) OnlineSingle() (int, bool) {
	for c := 1; c < e.pool.Count(); c++ {
		up, err := e.pool.IsOnline(c)
		if err != nil {
			log.Warn().Err(err).Int("cpu", c).Msg("Failed to read CPU state")
			continue
		}
		if up {
			continue
		}
		if err := e.pool.SetOnline(c, true); err != nil {
			log.Error().Err(err).Int("cpu", c).Msg("Failed to bring CPU online")
			return -1, false
		}
		log.Debug().Int("cpu", c).Msg("CPU up")
		return c, true
	}
	return -1, false
}

// OfflineSingle desliga a CPU online de maior índice, apenas se o
// resultado mantiver onlineCount >= minCPU. A primária nunca desce.
func (e *Executor) OfflineSingle(minCPU uint) (int, bool) {
	if uint(e.pool.OnlineCount()) <= minCPU {
		return -1, false
	}
	for c := e.pool.Count() - 1; c >= 1; c-- {
		up, err := e.pool.IsOnline(c)
		if err != nil {
			log.Warn().Err(err).Int("cpu", c).Msg("Failed to read CPU state")
			continue
		}
		if !up {
			continue
		}
		if err := e.pool.SetOnline(c, false); err != nil {
			log.Error().Err(err).Int("cpu", c).Msg("Failed to take CPU offline")
			return -1, false
		}
		log.Debug().Int("cpu", c).Msg("CPU down")
		return c, true
	}
	return -1, false
}

// ForceAllOffline desliga todas as CPUs não-primárias, ignorando o
// invariante de minCPU. Usado apenas pelo suspend gate.
func (e *Executor) ForceAllOffline() int {
	changed := 0
	for c := e.pool.Count() - 1; c >= 1; c-- {
		up, err := e.pool.IsOnline(c)
		if err != nil || !up {
			continue
		}
		if err := e.pool.SetOnline(c, false); err != nil {
			log.Error().Err(err).Int("cpu", c).Msg("Failed to take CPU offline for suspend")
			continue
		}
		changed++
	}
	return changed
}
