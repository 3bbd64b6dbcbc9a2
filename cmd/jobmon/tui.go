package main

import (
	"fmt"
	"sort"
	"strings"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lexigraph/jobmon/internal/models"
	"github.com/lexigraph/jobmon/internal/progress"
)

type snapshotMsg struct {
	snap *models.JobProgress
}

// feedClosedMsg ends a push-mode watch: nil err means the feed delivered a
// terminal snapshot and closed cleanly.
type feedClosedMsg struct {
	err error
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	statusStyles = map[models.JobStatus]lipgloss.Style{
		models.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		models.StatusProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		models.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusError:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
	chunkGlyphs = map[models.JobStatus]string{
		models.StatusPending:    "·",
		models.StatusProcessing: "▶",
		models.StatusCompleted:  "✔",
		models.StatusError:      "✘",
	}
)

type watchModel struct {
	jobID string
	snap  *models.JobProgress
	bar   bubblesprogress.Model
	spin  spinner.Model
}

func newWatchModel(jobID string) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return watchModel{jobID: jobID, bar: bar, spin: sp}
}

func (m watchModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case snapshotMsg:
		m.snap = msg.snap
		if progress.IsTerminal(m.snap.Status) {
			return m, tea.Quit
		}
		return m, nil
	case feedClosedMsg:
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Job "+m.jobID))

	if m.snap == nil {
		fmt.Fprintf(&b, "%s waiting for first status...\n", m.spin.View())
		return b.String()
	}

	style, ok := statusStyles[m.snap.Status]
	if !ok {
		style = lipgloss.NewStyle()
	}
	fmt.Fprintf(&b, "status: %s\n", style.Render(string(m.snap.Status)))
	fmt.Fprintf(&b, "%s %d%%\n", m.bar.ViewAs(float64(m.snap.OverallProgressPct)/100), m.snap.OverallProgressPct)
	fmt.Fprintf(&b, "chunks: %d/%d %s\n", m.snap.ProcessedChunks, m.snap.TotalChunks, chunkRow(m.snap.ChunkProgress))

	if len(m.snap.ResultCounts) > 0 {
		fmt.Fprintf(&b, "results: %s\n", countsLine(m.snap.ResultCounts))
	}
	if m.snap.ErrorMessage != "" {
		fmt.Fprintf(&b, "%s\n", statusStyles[models.StatusError].Render("error: "+m.snap.ErrorMessage))
	}
	return b.String()
}

func chunkRow(chunks []models.ChunkState) string {
	var b strings.Builder
	for _, c := range chunks {
		glyph, ok := chunkGlyphs[c.Status]
		if !ok {
			glyph = "?"
		}
		b.WriteString(glyph)
	}
	return b.String()
}

func countsLine(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, counts[name]))
	}
	return strings.Join(parts, " ")
}
