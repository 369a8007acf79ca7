package governor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsTask(t *testing.T) {
	s := NewScheduler()
	done := make(chan struct{})

	s.Schedule(TaskDecision, time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestSchedulerScheduleReplacesPending(t *testing.T) {
	s := NewScheduler()
	var first, second atomic.Int32

	s.Schedule(TaskDecision, 50*time.Millisecond, func() { first.Add(1) })
	s.Schedule(TaskDecision, time.Millisecond, func() { second.Add(1) })

	time.Sleep(100 * time.Millisecond)

	if first.Load() != 0 {
		t.Error("replaced task should not have run")
	}
	if second.Load() != 1 {
		t.Error("replacement task should have run once")
	}
}

func TestSchedulerReserveIsExclusive(t *testing.T) {
	s := NewScheduler()

	if !s.Reserve(TaskOffline, 50*time.Millisecond, func() {}) {
		t.Fatal("first reserve should succeed")
	}
	if s.Reserve(TaskOffline, time.Millisecond, func() {}) {
		t.Error("second reserve should fail while pending")
	}
	if !s.Pending(TaskOffline) {
		t.Error("expected pending offline task")
	}

	// kinds diferentes não conflitam
	if !s.Reserve(TaskDecision, time.Millisecond, func() {}) {
		t.Error("different kind should reserve independently")
	}
}

func TestSchedulerReserveConcurrent(t *testing.T) {
	// a reserva é atômica: de N corridas, exatamente uma vence
	s := NewScheduler()
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Reserve(TaskOffline, 50*time.Millisecond, func() {}) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("expected exactly 1 successful reserve, got %d", wins.Load())
	}
}

func TestSchedulerCancelPending(t *testing.T) {
	s := NewScheduler()
	var ran atomic.Int32

	s.Schedule(TaskOffline, 20*time.Millisecond, func() { ran.Add(1) })
	s.Cancel(TaskOffline)

	if s.Pending(TaskOffline) {
		t.Error("cancelled task should not be pending")
	}

	time.Sleep(60 * time.Millisecond)
	if ran.Load() != 0 {
		t.Error("cancelled task should not run")
	}
}

func TestSchedulerCancelSyncWaitsForRunning(t *testing.T) {
	s := NewScheduler()
	started := make(chan struct{})
	var finished atomic.Bool

	s.Schedule(TaskOffline, time.Millisecond, func() {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	<-started
	s.CancelSync(TaskOffline)

	if !finished.Load() {
		t.Error("CancelSync returned before the running task finished")
	}
}

func TestSchedulerCancelAllSyncClosesScheduler(t *testing.T) {
	s := NewScheduler()
	var ran atomic.Int32

	s.Schedule(TaskDecision, 20*time.Millisecond, func() { ran.Add(1) })
	s.Schedule(TaskUnpause, 20*time.Millisecond, func() { ran.Add(1) })

	s.CancelAllSync()

	time.Sleep(60 * time.Millisecond)
	if ran.Load() != 0 {
		t.Errorf("no task should run after CancelAllSync, got %d", ran.Load())
	}

	// agendamentos novos são ignorados após o fechamento
	s.Schedule(TaskDecision, time.Millisecond, func() { ran.Add(1) })
	if s.Reserve(TaskOffline, time.Millisecond, func() { ran.Add(1) }) {
		t.Error("reserve should fail on a closed scheduler")
	}

	time.Sleep(30 * time.Millisecond)
	if ran.Load() != 0 {
		t.Error("closed scheduler should not run new tasks")
	}
}

func TestTaskKindString(t *testing.T) {
	if TaskOffline.String() != "offline" || TaskDecision.String() != "decision" {
		t.Error("unexpected task kind names")
	}
}
