package tui

import (
	"fmt"

	"flowtagger/internal/pipeline"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxTableRows caps the tag table height.
const maxTableRows = 10

// SummaryModel shows the outcome of a run and quits on the first keypress.
type SummaryModel struct {
	result *pipeline.Result
	err    error
	table  table.Model
	prompt bool
}

// NewSummaryModel builds the end-of-run screen for either a result or an error.
func NewSummaryModel(res *pipeline.Result, err error) SummaryModel {
	columns := []table.Column{
		{Title: "Tag", Width: 24},
		{Title: "Count", Width: 12},
	}

	var rows []table.Row
	if res != nil {
		for _, tc := range res.Tags {
			rows = append(rows, table.Row{tc.Tag, fmt.Sprintf("%d", tc.Count)})
		}
	}
	height := len(rows)
	if height > maxTableRows {
		height = maxTableRows
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(height+2),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Cell
	t.SetStyles(s)

	return SummaryModel{
		result: res,
		err:    err,
		table:  t,
		prompt: true,
	}
}

func (m SummaryModel) Init() tea.Cmd {
	return nil
}

// Run shows the model full screen until a key is pressed.
func Run(m SummaryModel) error {
	_, err := tea.NewProgram(m).Run()
	return err
}

// Plain renders the screen without the keypress prompt, for non-interactive output.
func Plain(res *pipeline.Result, err error) string {
	m := NewSummaryModel(res, err)
	m.prompt = false
	return m.View()
}
