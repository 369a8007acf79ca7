package governor

import (
	"testing"
	"time"

	"cpu-hotplug-manager/internal/config"
	"cpu-hotplug-manager/internal/cpu"
	"cpu-hotplug-manager/internal/sampler"
)

// testTimings atrasos curtos para os testes não dormirem segundos
func testTimings() Timings {
	return Timings{
		WarmupDecision: 2 * time.Millisecond,
		WarmupUnpause:  5 * time.Millisecond,
		Cooldown:       50 * time.Millisecond,
		OfflineDelay:   5 * time.Millisecond,
		ResumeDelay:    2 * time.Millisecond,
	}
}

func newTestGovernor(t *testing.T, pool *cpu.FakePool, smp *sampler.FakeSampler) (*Governor, *config.Store) {
	t.Helper()

	store := config.NewStore()
	// ciclo rápido e janela curta para os testes convergirem logo
	store.Set("sample_time", "1")
	store.Set("sampling_period", "3")

	gov, err := New(Config{
		Pool:    pool,
		Sampler: smp,
		Params:  store,
		Timings: testTimings(),
	})
	if err != nil {
		t.Fatalf("failed to create governor: %v", err)
	}
	return gov, store
}

// waitFor espera a condição virar true dentro do prazo
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestGovernorNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Config{Sampler: sampler.NewFakeSampler(0)}); err == nil {
		t.Error("expected error without pool")
	}
	if _, err := New(Config{Pool: cpu.NewFakePool(4)}); err == nil {
		t.Error("expected error without sampler")
	}
}

func TestGovernorStartsPaused(t *testing.T) {
	pool := cpu.NewFakePool(4)
	gov, _ := newTestGovernor(t, pool, sampler.NewFakeSampler(0))

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	st := gov.Status()
	if !st.Running || !st.Paused {
		t.Errorf("expected running+paused after start, got %+v", st)
	}
	if st.OnlineCPUs != 1 {
		t.Errorf("expected 1 online at start, got %d", st.OnlineCPUs)
	}
}

func TestGovernorOnlineAllOnSustainedHighLoad(t *testing.T) {
	pool := cpu.NewFakePool(4)
	gov, _ := newTestGovernor(t, pool, sampler.NewFakeSampler(600))

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	waitFor(t, 2*time.Second, func() bool {
		return pool.OnlineCount() == 4
	}, "sustained high load should online all CPUs")
}

func TestGovernorOfflineOnIdle(t *testing.T) {
	pool := cpu.NewFakePool(4)
	pool.SetAll(true)
	gov, _ := newTestGovernor(t, pool, sampler.NewFakeSampler(0))

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	// idle sustentado desce uma CPU por vez até o piso de min_cpu
	waitFor(t, 2*time.Second, func() bool {
		return pool.OnlineCount() == 1
	}, "idle load should offline down to min_cpu")

	// e nunca abaixo do piso
	time.Sleep(50 * time.Millisecond)
	if n := pool.OnlineCount(); n != 1 {
		t.Errorf("online count fell below min_cpu: %d", n)
	}
}

func TestGovernorMinCPUFloor(t *testing.T) {
	pool := cpu.NewFakePool(4)
	pool.SetAll(true)
	smp := sampler.NewFakeSampler(0)

	store := config.NewStore()
	store.Set("sample_time", "1")
	store.Set("sampling_period", "3")
	store.Set("min_cpu", "2")

	gov, err := New(Config{Pool: pool, Sampler: smp, Params: store, Timings: testTimings()})
	if err != nil {
		t.Fatalf("failed to create governor: %v", err)
	}
	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	waitFor(t, 2*time.Second, func() bool {
		return pool.OnlineCount() == 2
	}, "idle load should stop at min_cpu=2")

	time.Sleep(50 * time.Millisecond)
	if n := pool.OnlineCount(); n < 2 {
		t.Errorf("online count fell below min_cpu=2: %d", n)
	}
}

func TestGovernorDisableCancelsTransitions(t *testing.T) {
	pool := cpu.NewFakePool(4)
	pool.SetAll(true)
	gov, _ := newTestGovernor(t, pool, sampler.NewFakeSampler(0))

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	// espera o loop engrenar e então desabilita; o retorno garante
	// que nenhum timer pendente sobreviveu
	waitFor(t, 2*time.Second, func() bool {
		return pool.OnlineCount() < 4
	}, "expected at least one offline before disable")

	gov.SetDisabled(true)
	frozen := len(pool.TransitionLog())

	time.Sleep(100 * time.Millisecond)
	if n := len(pool.TransitionLog()); n != frozen {
		t.Errorf("transitions after disable: %d -> %d", frozen, n)
	}
	if !gov.Status().Disabled {
		t.Error("expected disabled flag set")
	}
}

func TestGovernorDisableLeavesNoArmedTimer(t *testing.T) {
	pool := cpu.NewFakePool(4)
	gov, _ := newTestGovernor(t, pool, sampler.NewFakeSampler(0))

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	// prende um ciclo disparado no mutex, simulando um disable que
	// corre com o timer de decisão em voo
	gov.mu.Lock()
	gov.sched.Schedule(TaskDecision, 0, gov.decisionCycle)
	time.Sleep(20 * time.Millisecond)

	// a sequência do SetDisabled: flag sob o lock, cancelamento
	// síncrono depois de soltar
	gov.flags.Set(FlagDisabled)
	gov.mu.Unlock()

	gov.sched.CancelSync(TaskOffline)
	gov.sched.CancelSync(TaskDecision)
	gov.sched.CancelSync(TaskUnpause)

	// o ciclo preso viu a flag e não pode ter se re-armado
	if gov.sched.Pending(TaskDecision) {
		t.Error("decision timer still armed after the synchronous cancel")
	}

	time.Sleep(50 * time.Millisecond)
	if gov.sched.Pending(TaskDecision) {
		t.Error("decision loop kept running while disabled")
	}
}

func TestGovernorRestartAfterStop(t *testing.T) {
	pool := cpu.NewFakePool(4)
	gov, _ := newTestGovernor(t, pool, sampler.NewFakeSampler(600))

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	gov.Stop()

	if err := gov.Start(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	defer gov.Stop()

	waitFor(t, 2*time.Second, func() bool {
		return pool.OnlineCount() == 4
	}, "governor must drive transitions again after a restart")
}

func TestGovernorBoostKeepsWarmupPauseExpiry(t *testing.T) {
	pool := cpu.NewFakePool(4)
	smp := sampler.NewFakeSampler(0)

	store := config.NewStore()
	store.Set("sample_time", "1")
	store.Set("sampling_period", "3")

	// warm-up bem mais longo que o cooldown do boost
	timings := testTimings()
	timings.WarmupUnpause = 200 * time.Millisecond
	timings.Cooldown = 10 * time.Millisecond

	gov, err := New(Config{Pool: pool, Sampler: smp, Params: store, Timings: timings})
	if err != nil {
		t.Fatalf("failed to create governor: %v", err)
	}
	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	gov.Boost()

	// o cooldown do boost não encurta a pausa de warm-up já armada
	time.Sleep(60 * time.Millisecond)
	if !gov.Status().Paused {
		t.Fatal("boost cooldown cut the warm-up pause short")
	}

	waitFor(t, time.Second, func() bool {
		return !gov.Status().Paused
	}, "warm-up unpause should fire at its original expiry")
}

func TestGovernorEnableReArmsImmediately(t *testing.T) {
	pool := cpu.NewFakePool(4)
	smp := sampler.NewFakeSampler(600)
	gov, _ := newTestGovernor(t, pool, smp)

	// desabilitado antes do start: os ciclos rodam mas nunca agem
	gov.SetDisabled(true)
	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	time.Sleep(50 * time.Millisecond)
	if pool.OnlineCount() != 1 {
		t.Fatalf("expected 1 online while disabled, got %d", pool.OnlineCount())
	}

	gov.SetDisabled(false)
	st := gov.Status()
	if st.Disabled || st.Paused {
		t.Errorf("enable should clear disabled and paused, got %+v", st)
	}

	waitFor(t, 2*time.Second, func() bool {
		return pool.OnlineCount() == 4
	}, "governor should react to high load after enable")
}

func TestGovernorBoost(t *testing.T) {
	pool := cpu.NewFakePool(4)
	gov, _ := newTestGovernor(t, pool, sampler.NewFakeSampler(0))

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	gov.Boost()

	if n := pool.OnlineCount(); n != 2 {
		t.Errorf("boost should online one CPU immediately, got %d online", n)
	}
	if !gov.Status().Paused {
		t.Error("boost should pause the governor for the cooldown window")
	}
}

func TestGovernorBoostIgnoredWhileDisabled(t *testing.T) {
	pool := cpu.NewFakePool(4)
	gov, _ := newTestGovernor(t, pool, sampler.NewFakeSampler(0))

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	gov.SetDisabled(true)
	gov.Boost()

	if n := pool.OnlineCount(); n != 1 {
		t.Errorf("boost while disabled should be a no-op, got %d online", n)
	}
}

func TestGovernorSuspendForcesMinimalState(t *testing.T) {
	pool := cpu.NewFakePool(4)
	pool.SetAll(true)
	smp := sampler.NewFakeSampler(600)
	gov, store := newTestGovernor(t, pool, smp)
	// suspend ignora até um piso de min_cpu mais alto
	store.Set("min_cpu", "2")

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	gov.OnSuspend()

	if n := pool.OnlineCount(); n != 1 {
		t.Errorf("suspend should force only the primary online, got %d", n)
	}
	if !gov.Status().Suspended {
		t.Error("expected suspended flag set")
	}

	// o loop fica congelado: nada religa CPUs mesmo com carga alta
	time.Sleep(50 * time.Millisecond)
	if n := pool.OnlineCount(); n != 1 {
		t.Errorf("no transitions may happen while suspended, got %d online", n)
	}
}

func TestGovernorResumeReArmsLoop(t *testing.T) {
	pool := cpu.NewFakePool(4)
	smp := sampler.NewFakeSampler(600)
	gov, _ := newTestGovernor(t, pool, smp)

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	gov.OnSuspend()
	gov.OnResume()

	if gov.Status().Suspended {
		t.Error("resume should clear the suspend flag")
	}

	waitFor(t, 2*time.Second, func() bool {
		return pool.OnlineCount() == 4
	}, "governor should react to load after resume")
}

func TestGovernorStopHaltsLoop(t *testing.T) {
	pool := cpu.NewFakePool(4)
	gov, _ := newTestGovernor(t, pool, sampler.NewFakeSampler(600))

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	gov.Stop()
	frozen := len(pool.TransitionLog())

	time.Sleep(100 * time.Millisecond)
	if n := len(pool.TransitionLog()); n != frozen {
		t.Errorf("transitions after stop: %d -> %d", frozen, n)
	}
	if gov.IsRunning() {
		t.Error("expected not running after stop")
	}

	// stop duplo é seguro
	gov.Stop()
}

func TestGovernorOnlineBoundsInvariant(t *testing.T) {
	pool := cpu.NewFakePool(4)
	smp := sampler.NewFakeSampler(600)
	gov, _ := newTestGovernor(t, pool, smp)

	if err := gov.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer gov.Stop()

	// alterna carga alta e idle observando os limites
	deadline := time.Now().Add(300 * time.Millisecond)
	high := true
	for time.Now().Before(deadline) {
		if n := pool.OnlineCount(); n < 1 || n > 4 {
			t.Fatalf("online count out of bounds: %d", n)
		}
		if high {
			smp.Set(600)
		} else {
			smp.Set(0)
		}
		high = !high
		time.Sleep(10 * time.Millisecond)
	}
}
