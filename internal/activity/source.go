// Package activity entrega eventos de atividade do usuário ao governor.
// A detecção e filtragem dos dispositivos físicos é responsabilidade do
// colaborador externo; o core só consome o sinal "houve atividade".
package activity

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Event um evento de atividade filtrado
type Event struct {
	Time   time.Time
	Device string
}

// Source fonte de eventos de atividade
type Source interface {
	Events() <-chan Event
	Close() error
}

// boostCategories categorias de dispositivo que contam como atividade
// de usuário para fins de boost
var boostCategories = []string{
	"touch",
	"keypad",
	"keyboard",
	"mouse",
	"navigation",
	"button",
}

// IsBoostDevice retorna se o nome do dispositivo cai numa categoria de
// atividade (checagem por substring, case-insensitive)
func IsBoostDevice(name string) bool {
	lower := strings.ToLower(name)
	for _, cat := range boostCategories {
		if strings.Contains(lower, cat) {
			return true
		}
	}
	return false
}

// ChannelSource Source alimentado programaticamente (API web, testes).
// Eventos de dispositivos fora das categorias de boost são descartados.
type ChannelSource struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewChannelSource cria a fonte com buffer para não bloquear o produtor
func NewChannelSource() *ChannelSource {
	return &ChannelSource{ch: make(chan Event, 16)}
}

// Events retorna o canal de eventos
func (s *ChannelSource) Events() <-chan Event {
	return s.ch
}

// Notify injeta um evento de atividade. Retorna se o evento foi aceito
// (dispositivo de categoria válida e canal com espaço).
func (s *ChannelSource) Notify(device string) bool {
	if !IsBoostDevice(device) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	select {
	case s.ch <- Event{Time: time.Now(), Device: device}:
		return true
	default:
		// canal cheio: descarta, o boost já está a caminho
		log.Debug().Str("device", device).Msg("Activity channel full, dropping event")
		return false
	}
}

// Close fecha a fonte
func (s *ChannelSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

// Pump consome eventos da fonte e invoca o callback de boost até o
// canal fechar. Deve rodar numa goroutine própria.
func Pump(src Source, boost func()) {
	for range src.Events() {
		boost()
	}
}
