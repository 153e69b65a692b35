package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("📣 tweetbot status"))
	b.WriteString("\n\n")

	if m.LastErr != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("daemon unreachable: %v", m.LastErr)))
		b.WriteString("\n\n")
	}

	if m.Status != nil {
		s := m.Status
		b.WriteString(StatusStyle.Render(fmt.Sprintf("up %s | published this run: %d | log records: %d",
			s.Status.Uptime, s.Status.TotalPublished, s.PublishRecords)))
		b.WriteString("\n")
		if !s.ResurfaceState.LastFiredAt.IsZero() {
			b.WriteString(InfoStyle.Render("last resurface: " + s.ResurfaceState.LastFiredAt.Format("2006-01-02 15:04")))
			b.WriteString("\n")
		}
		b.WriteString("\n")

		if len(s.Status.Recent) > 0 {
			var box strings.Builder
			box.WriteString("Recent outcomes:\n")
			for _, rec := range tail(s.Status.Recent, 8) {
				mark := "✅"
				detail := rec.Outcome.PlatformPostID
				if !rec.Outcome.Success {
					mark = "❌"
					detail = rec.Outcome.Error
				}
				box.WriteString(fmt.Sprintf("%s %-9s %s\n", mark, rec.Kind, detail))
			}
			b.WriteString(BoxStyle.Render(strings.TrimRight(box.String(), "\n")))
			b.WriteString("\n\n")
		}

		if len(s.Status.Logs) > 0 {
			b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
			b.WriteString("\n")
			for _, entry := range tail(s.Status.Logs, 10) {
				line := fmt.Sprintf("   %s %s", entry.Timestamp.Format("15:04:05"), entry.Message)
				b.WriteString(InfoStyle.Render(line))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(InfoStyle.Render("Press 'r' to refresh | 'q' or Ctrl+C to quit"))
	return b.String()
}

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
