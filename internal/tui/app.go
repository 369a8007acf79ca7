// Package tui implementa o dashboard de terminal do governor: estado
// das CPUs, média de carga, flags e o histórico recente de transições.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cpu-hotplug-manager/internal/governor"
	"cpu-hotplug-manager/internal/storage"
)

// refreshInterval cadência de atualização do dashboard
const refreshInterval = 500 * time.Millisecond

// eventHistoryLimit quantos eventos recentes o painel mostra
const eventHistoryLimit = 12

// App aplicação do dashboard
type App struct {
	gov     *governor.Governor
	persist *storage.Persistence
}

// NewApp cria o dashboard sobre um governor já iniciado
func NewApp(gov *governor.Governor, persist *storage.Persistence) *App {
	return &App{gov: gov, persist: persist}
}

// Run executa o dashboard até o usuário sair (bloqueante)
func (a *App) Run() error {
	m := newModel(a.gov, a.persist)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}

// tickMsg dispara um refresh do estado
type tickMsg time.Time

// eventsMsg resultado da leitura assíncrona do histórico
type eventsMsg struct {
	events []storage.Event
	err    error
}

// actionDoneMsg uma ação de teclado terminou; refresh sem re-armar o tick
type actionDoneMsg struct{}

// model estado do dashboard
type model struct {
	gov     *governor.Governor
	persist *storage.Persistence

	status governor.Status
	events []storage.Event
	err    error

	width  int
	height int
}

func newModel(gov *governor.Governor, persist *storage.Persistence) model {
	return model{
		gov:     gov,
		persist: persist,
		status:  gov.Status(),
	}
}

// tick agenda o próximo refresh
func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadEvents lê o histórico em background para não travar o render
func (m model) loadEvents() tea.Cmd {
	if m.persist == nil {
		return nil
	}
	persist := m.persist
	return func() tea.Msg {
		events, err := persist.RecentEvents(eventHistoryLimit)
		return eventsMsg{events: events, err: err}
	}
}

// Init inicializa o loop de refresh
func (m model) Init() tea.Cmd {
	return tea.Batch(tick(), m.loadEvents())
}

// Update processa mensagens do bubbletea
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		// Status é barato (mutex + snapshot); eventos vão em background
		m.status = m.gov.Status()
		return m, tea.Batch(tick(), m.loadEvents())

	case eventsMsg:
		if msg.err == nil {
			m.events = msg.events
		}
		return m, nil

	case actionDoneMsg:
		m.status = m.gov.Status()
		return m, m.loadEvents()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey trata os atalhos do dashboard
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "d":
		// toggle disable
		disable := !m.status.Disabled
		gov := m.gov
		return m, func() tea.Msg {
			gov.SetDisabled(disable)
			return actionDoneMsg{}
		}

	case "b":
		gov := m.gov
		return m, func() tea.Msg {
			gov.Boost()
			return actionDoneMsg{}
		}

	case "s":
		// toggle suspend/resume
		gov := m.gov
		suspended := m.status.Suspended
		return m, func() tea.Msg {
			if suspended {
				gov.OnResume()
			} else {
				gov.OnSuspend()
			}
			return actionDoneMsg{}
		}
	}

	return m, nil
}
