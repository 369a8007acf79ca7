package governor

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"cpu-hotplug-manager/internal/config"
	"cpu-hotplug-manager/internal/cpu"
	"cpu-hotplug-manager/internal/metrics"
	"cpu-hotplug-manager/internal/sampler"
	"cpu-hotplug-manager/internal/storage"
)

// Timings atrasos fixos do loop
// (warm-up de boot, cooldown pós online-all, atraso do offline, resume)
type Timings struct {
	WarmupDecision time.Duration // primeiro ciclo após o start
	WarmupUnpause  time.Duration // fim da pausa de warm-up
	Cooldown       time.Duration // pausa após online-all / boost
	OfflineDelay   time.Duration // espera antes de executar um offline
	ResumeDelay    time.Duration // re-armar o loop após resume
}

// DefaultTimings retorna os atrasos padrão (10s/20s/1s/1s/1s)
func DefaultTimings() Timings {
	return Timings{
		WarmupDecision: 10 * time.Second,
		WarmupUnpause:  20 * time.Second,
		Cooldown:       time.Second,
		OfflineDelay:   time.Second,
		ResumeDelay:    time.Second,
	}
}

// Config dependências do governor
type Config struct {
	Pool        cpu.Pool
	Sampler     sampler.Sampler
	Params      *config.Store
	Persistence *storage.Persistence // opcional
	Timings     Timings              // zero usa DefaultTimings
}

// Status snapshot do estado do governor para a API e o dashboard
type Status struct {
	Running     bool              `json:"running"`
	Disabled    bool              `json:"disabled"`
	Paused      bool              `json:"paused"`
	Suspended   bool              `json:"suspended"`
	OnlineCPUs  int               `json:"online_cpus"`
	TotalCPUs   int               `json:"total_cpus"`
	AverageLoad uint64            `json:"average_load"`
	LastSample  uint64            `json:"last_sample"`
	WindowSize  uint              `json:"window_size"`
	Thresholds  config.Thresholds `json:"-"`
}

// Governor orquestra o ciclo de decisão de hotplug: amostra a carga,
// calcula a média na janela, decide e executa transições, e se re-arma
// com intervalo adaptativo. Todo o estado compartilhado (flags,
// histórico) fica atrás de um único mutex; os quatro pontos de entrada
// concorrentes (ciclo, suspend, resume, boost) passam por ele.
type Governor struct {
	mu      sync.Mutex
	flags   Flags
	history *History
	running bool

	params  *config.Store
	pool    cpu.Pool
	smp     sampler.Sampler
	exec    *Executor
	sched   *Scheduler
	persist *storage.Persistence
	timings Timings

	lastSample uint64
	lastAvg    uint64
}

// New cria o governor. Pool e Sampler são obrigatórios; a ausência de
// qualquer colaborador de inicialização é fatal para o startup.
func New(cfg Config) (*Governor, error) {
	if cfg.Pool == nil {
		return nil, fmt.Errorf("cpu pool is required")
	}
	if cfg.Sampler == nil {
		return nil, fmt.Errorf("load sampler is required")
	}
	if cfg.Params == nil {
		cfg.Params = config.NewStore()
	}
	if cfg.Timings == (Timings{}) {
		cfg.Timings = DefaultTimings()
	}

	t := cfg.Params.Snapshot()

	return &Governor{
		history: NewHistory(t.SamplingPeriod),
		params:  cfg.Params,
		pool:    cfg.Pool,
		smp:     cfg.Sampler,
		exec:    NewExecutor(cfg.Pool),
		sched:   NewScheduler(),
		persist: cfg.Persistence,
		timings: cfg.Timings,
	}, nil
}

// Start inicia o loop de decisão. O governor parte pausado pela janela
// de warm-up, para dar tempo ao sistema antes de mexer em hotplug.
func (g *Governor) Start() error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return nil
	}
	g.running = true
	g.flags.Set(FlagPaused)
	// Stop fecha o scheduler de vez; cada Start parte de um limpo
	g.sched = NewScheduler()
	g.mu.Unlock()

	metrics.SetFlag("paused", true)
	metrics.SetOnlineCPUs(g.pool.OnlineCount())

	log.Info().
		Int("cpus", g.pool.Count()).
		Dur("warmup", g.timings.WarmupDecision).
		Msg("Starting hotplug governor")

	g.sched.Schedule(TaskDecision, g.timings.WarmupDecision, g.decisionCycle)
	g.sched.Schedule(TaskUnpause, g.timings.WarmupUnpause, g.unpauseTask)
	return nil
}

// Stop para o loop e cancela todos os timers pendentes, aguardando
// execuções em andamento
func (g *Governor) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	g.mu.Unlock()

	g.sched.CancelAllSync()
	log.Info().Msg("Hotplug governor stopped")
}

// IsRunning retorna se o loop está ativo
func (g *Governor) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Params retorna o store de tunáveis (para a API de parâmetros)
func (g *Governor) Params() *config.Store {
	return g.params
}

// Status retorna um snapshot consistente do estado atual
func (g *Governor) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Status{
		Running:     g.running,
		Disabled:    g.flags.Has(FlagDisabled),
		Paused:      g.flags.Has(FlagPaused),
		Suspended:   g.flags.Has(FlagSuspend),
		OnlineCPUs:  g.pool.OnlineCount(),
		TotalCPUs:   g.pool.Count(),
		AverageLoad: g.lastAvg,
		LastSample:  g.lastSample,
		WindowSize:  g.history.Capacity(),
		Thresholds:  g.params.Snapshot(),
	}
}

// decisionCycle um ciclo completo: sample → média → política →
// (transição) → re-armar. Sempre re-arma exatamente um próximo ciclo,
// diretamente ou via a tarefa de transição disparada.
func (g *Governor) decisionCycle() {
	start := time.Now()

	g.mu.Lock()
	// disabled e suspend param o loop sem re-armar; enable e resume
	// re-armam por conta própria
	if !g.running || g.flags.Has(FlagSuspend) || g.flags.Has(FlagDisabled) {
		g.mu.Unlock()
		return
	}

	t := g.params.Snapshot()
	if g.history.Capacity() != t.SamplingPeriod {
		g.history.Resize(t.SamplingPeriod)
	}

	sample, err := g.smp.Sample()
	if err != nil {
		// não registra lixo; tenta de novo no próximo tick
		log.Warn().Err(err).Msg("Load sample failed")
		g.sched.Schedule(TaskDecision, t.SampleTime, g.decisionCycle)
		g.mu.Unlock()
		return
	}

	g.history.Record(sample)
	avg := g.history.Average()
	g.lastSample = sample
	g.lastAvg = avg

	online := g.pool.OnlineCount()
	dec := Evaluate(avg, online, g.flags, t, g.sched.Pending(TaskOffline))

	log.Debug().
		Int("online_cpus", online).
		Uint64("running", sample).
		Uint64("avg_running", avg).
		Str("action", dec.Action.String()).
		Msg("Decision cycle")

	metrics.RecordDecision(dec.Action.String())
	metrics.SetOnlineCPUs(online)
	metrics.SetAverageLoad(avg)

	if dec.CancelOffline {
		g.sched.Cancel(TaskOffline)
	}
	if dec.Pause {
		g.flags.Set(FlagPaused)
		metrics.SetFlag("paused", true)
	}

	switch dec.Action {
	case ActionOnlineAll:
		log.Info().Uint64("avg_running", avg).Msg("Onlining all CPUs")
		// a tarefa re-arma o ciclo e o cooldown ao terminar
		g.sched.Reserve(TaskOnlineAll, 0, func() { g.onlineAllTask(avg) })

	case ActionOnlineSingle:
		log.Info().Uint64("avg_running", avg).Msg("Onlining single CPU")
		g.sched.Reserve(TaskOnlineSingle, 0, func() { g.onlineSingleTask(avg) })

	case ActionOfflineSingle:
		log.Info().Uint64("avg_running", avg).Msg("Offlining CPU")
		g.sched.Reserve(TaskOffline, g.timings.OfflineDelay, func() { g.offlineTask(avg) })
		g.sched.Schedule(TaskDecision, dec.Delay, g.decisionCycle)

	default:
		g.sched.Schedule(TaskDecision, dec.Delay, g.decisionCycle)
	}

	g.mu.Unlock()
	metrics.ObserveCycle(time.Since(start).Seconds())
}

// onlineAllTask liga todas as CPUs, arma o cooldown e re-arma o ciclo
func (g *Governor) onlineAllTask(avg uint64) {
	changed := g.exec.OnlineAll()
	if changed > 0 {
		metrics.RecordTransition("online_all")
		g.persistEvent("online_all", -1, avg)
	}
	metrics.SetOnlineCPUs(g.pool.OnlineCount())

	g.mu.Lock()
	if g.running {
		t := g.params.Snapshot()
		// um unpause já armado (warm-up) mantém o expiry original
		g.sched.Reserve(TaskUnpause, g.timings.Cooldown, g.unpauseTask)
		g.sched.Schedule(TaskDecision, t.SampleTime, g.decisionCycle)
	}
	g.mu.Unlock()
}

// onlineSingleTask liga uma CPU e re-arma o ciclo
func (g *Governor) onlineSingleTask(avg uint64) {
	if c, ok := g.exec.OnlineSingle(); ok {
		metrics.RecordTransition("online_single")
		g.persistEvent("online_single", c, avg)
	}
	metrics.SetOnlineCPUs(g.pool.OnlineCount())

	g.mu.Lock()
	if g.running {
		t := g.params.Snapshot()
		g.sched.Schedule(TaskDecision, t.SampleTime, g.decisionCycle)
	}
	g.mu.Unlock()
}

// offlineTask desliga uma CPU (respeitando min_cpu) e re-arma o ciclo
func (g *Governor) offlineTask(avg uint64) {
	g.mu.Lock()
	if !g.running || g.flags.Has(FlagDisabled) || g.flags.Has(FlagSuspend) {
		g.mu.Unlock()
		return
	}
	t := g.params.Snapshot()
	g.mu.Unlock()

	if c, ok := g.exec.OfflineSingle(t.MinCPU); ok {
		metrics.RecordTransition("offline_single")
		g.persistEvent("offline_single", c, avg)
	}
	metrics.SetOnlineCPUs(g.pool.OnlineCount())

	g.mu.Lock()
	if g.running {
		g.sched.Schedule(TaskDecision, t.SampleTime, g.decisionCycle)
	}
	g.mu.Unlock()
}

// unpauseTask limpa a flag de pausa ao fim do cooldown
func (g *Governor) unpauseTask() {
	g.mu.Lock()
	g.flags.Clear(FlagPaused)
	g.mu.Unlock()

	metrics.SetFlag("paused", false)
	log.Debug().Msg("Clearing pause flag")
}

// OnSuspend hook de suspend: força estado mínimo (apenas a CPU
// primária, ignorando min_cpu), seta a flag e cancela sincronamente os
// timers de decisão e offline.
func (g *Governor) OnSuspend() {
	g.mu.Lock()
	if g.flags.Has(FlagSuspend) {
		g.mu.Unlock()
		return
	}
	g.flags.Set(FlagSuspend)
	g.mu.Unlock()

	metrics.SetFlag("suspended", true)

	// cancela antes de mexer nas CPUs para não correr com um ciclo
	g.sched.CancelSync(TaskOffline)
	g.sched.CancelSync(TaskDecision)

	changed := g.exec.ForceAllOffline()
	metrics.SetOnlineCPUs(g.pool.OnlineCount())
	g.persistEvent("suspend", -1, 0)

	log.Info().Int("offlined", changed).Msg("Offlining CPUs for suspend")
}

// OnResume hook de resume: limpa a flag e re-arma o loop após um
// atraso curto fixo
func (g *Governor) OnResume() {
	g.mu.Lock()
	g.flags.Clear(FlagSuspend)
	if g.running && !g.flags.Has(FlagDisabled) {
		g.sched.Schedule(TaskDecision, g.timings.ResumeDelay, g.decisionCycle)
	}
	g.mu.Unlock()

	metrics.SetFlag("suspended", false)
	g.persistEvent("resume", -1, 0)

	log.Info().Msg("Resume: governor re-armed")
}

// Boost preempção por atividade externa: cancela um offline pendente,
// liga uma CPU imediatamente (fora da cadência de amostragem) e re-arma
// cooldown e próximo ciclo.
func (g *Governor) Boost() {
	g.mu.Lock()
	if !g.running || g.flags.Has(FlagDisabled) || g.flags.Has(FlagSuspend) {
		g.mu.Unlock()
		return
	}
	g.sched.Cancel(TaskOffline)
	g.flags.Set(FlagPaused)
	g.mu.Unlock()

	metrics.SetFlag("paused", true)
	metrics.RecordBoost()

	if c, ok := g.exec.OnlineSingle(); ok {
		metrics.RecordTransition("online_single")
		g.persistEvent("boost", c, 0)
		log.Info().Int("cpu", c).Msg("Boost: CPU onlined")
	}
	metrics.SetOnlineCPUs(g.pool.OnlineCount())

	g.mu.Lock()
	if g.running {
		t := g.params.Snapshot()
		// um unpause já armado (warm-up) mantém o expiry original
		g.sched.Reserve(TaskUnpause, g.timings.Cooldown, g.unpauseTask)
		g.sched.Schedule(TaskDecision, t.SampleTime, g.decisionCycle)
	}
	g.mu.Unlock()
}

// SetDisabled liga/desliga as transições automáticas. Desabilitar
// cancela sincronamente todos os timers; chamadores externos dependem
// de "nenhum hotplug após disable". Habilitar limpa Disabled e Paused e
// re-arma o ciclo com atraso zero.
func (g *Governor) SetDisabled(disable bool) {
	if disable {
		g.mu.Lock()
		if g.flags.Has(FlagDisabled) {
			g.mu.Unlock()
			return
		}
		g.flags.Set(FlagDisabled)
		g.mu.Unlock()

		g.sched.CancelSync(TaskOffline)
		g.sched.CancelSync(TaskDecision)
		g.sched.CancelSync(TaskUnpause)

		metrics.SetFlag("disabled", true)
		g.persistEvent("disable", -1, 0)
		log.Info().Msg("Setting disable flag")
		return
	}

	g.mu.Lock()
	if !g.flags.Has(FlagDisabled) {
		g.mu.Unlock()
		return
	}
	g.flags.Clear(FlagDisabled)
	g.flags.Clear(FlagPaused)
	if g.running {
		g.sched.Schedule(TaskDecision, 0, g.decisionCycle)
	}
	g.mu.Unlock()

	metrics.SetFlag("disabled", false)
	metrics.SetFlag("paused", false)
	g.persistEvent("enable", -1, 0)
	log.Info().Msg("Clearing disable flag")
}

// persistEvent grava o evento em background; falha de persistência
// nunca bloqueia o loop
func (g *Governor) persistEvent(kind string, cpuIdx int, avg uint64) {
	if g.persist == nil {
		return
	}

	ev := storage.NewEvent(kind, cpuIdx, g.pool.OnlineCount(), avg)
	go func() {
		if err := g.persist.SaveEvent(ev); err != nil {
			log.Warn().Err(err).Str("kind", kind).Msg("Failed to persist event")
		}
	}()
}
