package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	flagOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	flagOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	eventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("87"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// View renderiza o dashboard
func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("CPU Hotplug Governor"))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusBox())
	b.WriteString("\n")
	b.WriteString(m.renderThresholdsBox())
	b.WriteString("\n")
	b.WriteString(m.renderEventsBox())
	b.WriteString("\n")

	b.WriteString(helpStyle.Render("q: sair • d: disable/enable • b: boost • s: suspend/resume"))
	b.WriteString("\n")

	return b.String()
}

// renderStatusBox estado das CPUs, média e flags
func (m model) renderStatusBox() string {
	st := m.status

	// Barra de CPUs: ● online, ○ offline. O pool não expõe o estado
	// por índice aqui, então a barra mostra contagem, não identidade.
	var cpus []string
	for i := 0; i < st.TotalCPUs; i++ {
		if i < st.OnlineCPUs {
			cpus = append(cpus, onlineStyle.Render("●"))
		} else {
			cpus = append(cpus, offlineStyle.Render("○"))
		}
	}

	var lines []string
	lines = append(lines,
		labelStyle.Render("CPUs:    ")+strings.Join(cpus, " ")+
			valueStyle.Render(fmt.Sprintf("  %d/%d online", st.OnlineCPUs, st.TotalCPUs)))
	lines = append(lines,
		labelStyle.Render("Média:   ")+valueStyle.Render(fmt.Sprintf("%d", st.AverageLoad))+
			labelStyle.Render(fmt.Sprintf("  (última amostra: %d, janela: %d)", st.LastSample, st.WindowSize)))
	lines = append(lines,
		labelStyle.Render("Flags:   ")+
			renderFlag("running", st.Running)+" "+
			renderFlag("disabled", st.Disabled)+" "+
			renderFlag("paused", st.Paused)+" "+
			renderFlag("suspended", st.Suspended))

	return boxStyle.Render(strings.Join(lines, "\n"))
}

// renderFlag uma flag colorida conforme o estado
func renderFlag(name string, set bool) string {
	if set {
		return flagOnStyle.Render("[" + name + "]")
	}
	return flagOffStyle.Render("[" + name + "]")
}

// renderThresholdsBox tunáveis atuais
func (m model) renderThresholdsBox() string {
	t := m.status.Thresholds

	lines := []string{
		labelStyle.Render("shift_all: ") + valueStyle.Render(fmt.Sprintf("%-5d", t.ShiftAll)) +
			labelStyle.Render(" shift_cpu: ") + valueStyle.Render(fmt.Sprintf("%-5d", t.ShiftCPU)) +
			labelStyle.Render(" down_shift: ") + valueStyle.Render(fmt.Sprintf("%d", t.DownShift)),
		labelStyle.Render("min_cpu:   ") + valueStyle.Render(fmt.Sprintf("%-5d", t.MinCPU)) +
			labelStyle.Render(" max_cpu:   ") + valueStyle.Render(fmt.Sprintf("%-5d", t.MaxCPU)) +
			labelStyle.Render(" sample_time: ") + valueStyle.Render(t.SampleTime.String()) +
			labelStyle.Render(" law: ") + valueStyle.Render(string(t.Law)),
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}

// renderEventsBox histórico recente de transições
func (m model) renderEventsBox() string {
	if m.persist == nil {
		return boxStyle.Render(labelStyle.Render("Histórico desabilitado (--no-persist)"))
	}
	if len(m.events) == 0 {
		return boxStyle.Render(labelStyle.Render("Sem transições registradas ainda"))
	}

	maxWidth := m.width - 6
	if maxWidth < 40 {
		maxWidth = 40
	}

	var lines []string
	for _, ev := range m.events {
		cpu := "-"
		if ev.CPU >= 0 {
			cpu = fmt.Sprintf("cpu%d", ev.CPU)
		}
		line := fmt.Sprintf("%s  %-14s %-5s online=%d avg=%d",
			ev.Timestamp.Format("15:04:05"),
			ev.Kind,
			cpu,
			ev.OnlineAfter,
			ev.AvgLoad,
		)
		// emojis e acentos contam células reais no terminal
		line = runewidth.Truncate(line, maxWidth, "…")
		lines = append(lines, eventStyle.Render(line))
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}
