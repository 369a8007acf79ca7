package governor

import (
	"time"

	"cpu-hotplug-manager/internal/config"
)

// Action ação decidida para um ciclo
type Action int

const (
	ActionNone Action = iota
	ActionOnlineAll
	ActionOnlineSingle
	ActionOfflineSingle
)

func (a Action) String() string {
	switch a {
	case ActionOnlineAll:
		return "online_all"
	case ActionOnlineSingle:
		return "online_single"
	case ActionOfflineSingle:
		return "offline_single"
	default:
		return "none"
	}
}

// Decision resultado de um ciclo de decisão
type Decision struct {
	Action Action

	// Pause efeito colateral do OnlineAll: seta a flag Paused
	Pause bool

	// CancelOffline descarta um offline pendente antes de agir
	CancelOffline bool

	// FastRecheck re-checagem rápida (base interval) em vez do
	// intervalo adaptativo
	FastRecheck bool

	// Delay com que o loop deve se re-armar
	Delay time.Duration
}

// enableSingleLoad threshold de ativação de uma CPU, escalado pelo
// número de CPUs online. Com shift_cpu_two > 0 a variante de dois tiers
// é selecionada: o segundo tier vale para online > 1.
func enableSingleLoad(online int, t config.Thresholds) uint64 {
	perUnit := t.ShiftCPU
	if t.ShiftCPUTwo > 0 && online > 1 {
		perUnit = t.ShiftCPUTwo
	}
	return uint64(perUnit) * uint64(online)
}

// adaptiveDelay intervalo de re-amostragem, monotônico não-decrescente
// no número de CPUs online (a carga agregada flutua mais com mais CPUs)
func adaptiveDelay(online int, t config.Thresholds) time.Duration {
	if online < 1 {
		online = 1
	}
	switch t.Law {
	case config.ScalingQuadratic:
		return t.SampleTime * time.Duration(online) * time.Duration(online)
	default:
		return t.SampleTime * time.Duration(online)
	}
}

// Evaluate função pura de decisão: média + CPUs online + flags → ação.
// Avaliada em ordem estrita de prioridade; a primeira regra que casa
// vence e as demais não são avaliadas.
func Evaluate(avg uint64, online int, flags Flags, t config.Thresholds, offlinePending bool) Decision {
	if flags.Has(FlagDisabled) {
		return Decision{Action: ActionNone, Delay: adaptiveDelay(online, t)}
	}

	if avg >= uint64(t.ShiftAll) && online < int(t.MaxCPU) {
		return Decision{
			Action:        ActionOnlineAll,
			Pause:         true,
			CancelOffline: true,
			FastRecheck:   true,
			Delay:         t.SampleTime,
		}
	}

	if flags.Has(FlagPaused) {
		return Decision{Action: ActionNone, FastRecheck: true, Delay: t.SampleTime}
	}

	if avg >= enableSingleLoad(online, t) && online < int(t.MaxCPU) {
		return Decision{
			Action:        ActionOnlineSingle,
			CancelOffline: true,
			FastRecheck:   true,
			Delay:         t.SampleTime,
		}
	}

	if avg <= uint64(t.DownShift)*uint64(online) && !offlinePending {
		return Decision{Action: ActionOfflineSingle, Delay: adaptiveDelay(online, t)}
	}

	return Decision{Action: ActionNone, Delay: adaptiveDelay(online, t)}
}
