package tui

import (
	"fmt"
	"strings"
	"time"

	"flowtagger/internal/analysis"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// topPorts is how many port/protocol pairs the summary lists.
const topPorts = 5

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	errorTitleStyle = titleStyle.
			Background(lipgloss.Color("#C0392B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func (m SummaryModel) View() string {
	var body string
	if m.err != nil {
		body = m.errorView()
	} else {
		body = m.resultView()
	}

	if m.prompt {
		return body + "\n" + hintStyle.Render("Press any key to exit.") + "\n"
	}
	return body + "\n"
}

func (m SummaryModel) errorView() string {
	title := errorTitleStyle.Render("flowtagger - run failed")
	msg := infoStyle.Render(m.err.Error() + "\n\nNo reports were written. Fix the input and run again.")
	return lipgloss.JoinVertical(lipgloss.Left, title, msg)
}

func (m SummaryModel) resultView() string {
	res := m.result
	title := titleStyle.Render(fmt.Sprintf("flowtagger - run %s", shortID(res.RunID)))

	summary := fmt.Sprintf("Records: %s\nSkipped lines: %d\nFlow log: %s\nLookup entries: %d (%d duplicate)\nProtocols: %d%s\nElapsed: %s",
		humanize.Comma(int64(res.Flow.Records)),
		res.Flow.Skipped,
		humanize.Bytes(uint64(res.Flow.Bytes)),
		res.LookupEntries,
		res.LookupDuplicates,
		res.Protocols,
		builtinNote(res.BuiltinProtocols),
		res.Elapsed.Round(time.Millisecond),
	)
	summaryBox := infoStyle.Render(summary)

	var ports []string
	pp := res.Tally.PortProtocolCounts(analysis.OrderCount)
	limit := topPorts
	if len(pp) < limit {
		limit = len(pp)
	}
	for i := 0; i < limit; i++ {
		p := pp[i]
		ports = append(ports, fmt.Sprintf("%d/%s (%s): %d", p.Port, p.Protocol, analysis.ServiceName(p.Port), p.Count))
	}
	if len(ports) == 0 {
		ports = append(ports, "No flows.")
	}
	portBox := infoStyle.Render("Top ports:\n" + strings.Join(ports, "\n"))

	tagBox := infoStyle.Render("Tags\n" + m.table.View())
	reports := infoStyle.Render(fmt.Sprintf("Reports:\n%s\n%s", res.Reports.Tag, res.Reports.PortProtocol))

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, summaryBox, portBox)
	return lipgloss.JoinVertical(lipgloss.Left, title, row1, tagBox, reports)
}

func builtinNote(builtin bool) string {
	if builtin {
		return " (built-in)"
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
