package governor

import (
	"sync"
	"time"
)

// TaskKind identifica cada tarefa diferida do governor. Por kind existe
// no máximo um agendamento pendente; a reserva é atômica, fechando a
// corrida check-then-schedule entre decisão e execução.
type TaskKind int

const (
	TaskDecision TaskKind = iota
	TaskUnpause
	TaskOffline
	TaskOnlineAll
	TaskOnlineSingle
)

func (k TaskKind) String() string {
	switch k {
	case TaskDecision:
		return "decision"
	case TaskUnpause:
		return "unpause"
	case TaskOffline:
		return "offline"
	case TaskOnlineAll:
		return "online_all"
	case TaskOnlineSingle:
		return "online_single"
	default:
		return "unknown"
	}
}

type taskHandle struct {
	timer     *time.Timer
	done      chan struct{}
	cancelled bool
}

// Scheduler agenda tarefas one-shot canceláveis, um handle por kind.
// Schedule substitui o agendamento anterior; Reserve falha se já houver
// um pendente. CancelSync aguarda uma execução em andamento terminar.
type Scheduler struct {
	mu      sync.Mutex
	pending map[TaskKind]*taskHandle
	running map[TaskKind]*taskHandle
	closed  bool
}

// NewScheduler cria o scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		pending: make(map[TaskKind]*taskHandle),
		running: make(map[TaskKind]*taskHandle),
	}
}

// Schedule agenda fn após delay, substituindo qualquer pendente do kind
func (s *Scheduler) Schedule(kind TaskKind, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if h, ok := s.pending[kind]; ok {
		h.cancelled = true
		h.timer.Stop()
	}
	s.schedule(kind, delay, fn)
}

// Reserve agenda fn após delay apenas se não houver pendente do kind.
// Retorna false se a reserva falhou.
func (s *Scheduler) Reserve(kind TaskKind, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, ok := s.pending[kind]; ok {
		return false
	}
	s.schedule(kind, delay, fn)
	return true
}

// schedule registra o handle; chamar com lock adquirido
func (s *Scheduler) schedule(kind TaskKind, delay time.Duration, fn func()) {
	h := &taskHandle{done: make(chan struct{})}
	h.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if h.cancelled || s.closed {
			s.mu.Unlock()
			close(h.done)
			return
		}
		// deixa de estar pendente assim que começa a executar
		if s.pending[kind] == h {
			delete(s.pending, kind)
		}
		s.running[kind] = h
		s.mu.Unlock()

		fn()

		s.mu.Lock()
		if s.running[kind] == h {
			delete(s.running, kind)
		}
		s.mu.Unlock()
		close(h.done)
	})
	s.pending[kind] = h
}

// Pending retorna se há tarefa do kind agendada e ainda não iniciada
func (s *Scheduler) Pending(kind TaskKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[kind]
	return ok
}

// Cancel cancela o pendente do kind, sem aguardar execução em andamento.
// Cancelamento que corre com o início da tarefa é best-effort: uma
// transição atrasada pode disparar, e o próximo ciclo corrige.
func (s *Scheduler) Cancel(kind TaskKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.pending[kind]; ok {
		h.cancelled = true
		h.timer.Stop()
		delete(s.pending, kind)
	}
}

// CancelSync cancela o pendente e aguarda qualquer execução do kind em
// andamento terminar. Não deve ser chamado segurando locks que a
// própria tarefa adquire.
func (s *Scheduler) CancelSync(kind TaskKind) {
	s.mu.Lock()
	if h, ok := s.pending[kind]; ok {
		h.cancelled = true
		h.timer.Stop()
		delete(s.pending, kind)
	}
	run, inFlight := s.running[kind]
	s.mu.Unlock()

	if inFlight {
		<-run.done
	}
}

// CancelAllSync cancela tudo, aguarda execuções em andamento e fecha o
// scheduler para novos agendamentos
func (s *Scheduler) CancelAllSync() {
	s.mu.Lock()
	s.closed = true
	for kind, h := range s.pending {
		h.cancelled = true
		h.timer.Stop()
		delete(s.pending, kind)
	}
	inFlight := make([]*taskHandle, 0, len(s.running))
	for _, h := range s.running {
		inFlight = append(inFlight, h)
	}
	s.mu.Unlock()

	for _, h := range inFlight {
		<-h.done
	}
}
