package commands

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/sakif/flashgig/internal/api"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
	faintColor   = color.New(color.Faint)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(13)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func successf(w io.Writer, format string, a ...any) {
	successColor.Fprintf(w, "✓ "+format+"\n", a...)
}

func warnf(w io.Writer, format string, a ...any) {
	warnColor.Fprintf(w, "! "+format+"\n", a...)
}

func failf(w io.Writer, format string, a ...any) {
	failColor.Fprintf(w, "✗ "+format+"\n", a...)
}

// card renders a titled block of label/value rows.
func card(title string, rows [][2]string) string {
	lines := []string{titleStyle.Render(title)}
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r[0])+r[1])
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// grid renders rows under headers.
func grid(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("241"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// maxOffset caps the rendered timestamp; anything longer is not a real
// position in a recording.
const maxOffset = math.MaxInt32

// formatOffset renders a comment timestamp (seconds) as m:ss, with a leading
// minus for negative offsets.
func formatOffset(ts *float64) string {
	if ts == nil || math.IsNaN(*ts) {
		return ""
	}
	secs := math.Abs(*ts)
	sign := ""
	if *ts < 0 && secs >= 1 {
		sign = "-"
	}
	total := int64(math.Min(secs, maxOffset))
	return fmt.Sprintf("%s%d:%02d", sign, total/60, total%60)
}

// describe turns an error into the line shown to the user. API errors are
// told apart by kind, never by message text.
func describe(err error, serverURL string) string {
	switch api.KindOf(err) {
	case api.KindTransport:
		return fmt.Sprintf("Cannot reach the Flash Gig server at %s. Is it running?", serverURL)
	case api.KindUnauthorized:
		return api.MessageOf(err)
	case api.KindForbidden:
		return "Not allowed: " + api.MessageOf(err)
	case api.KindNotFound, api.KindValidation:
		return api.MessageOf(err)
	case api.KindServer:
		return "The server ran into a problem. Try again later."
	case api.KindDecode:
		return "The server sent a response this client does not understand."
	default:
		return err.Error()
	}
}
