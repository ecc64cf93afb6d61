// Package markup renders the lightweight inline markup allowed in chat
// messages (bold, italic, code spans) for terminal display. The chat core
// never interprets markup; it is display-only.
package markup

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	boldStyle   = lipgloss.NewStyle().Bold(true)
	italicStyle = lipgloss.NewStyle().Italic(true)
	codeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Background(lipgloss.Color("236"))
)

// Render converts **bold**, *italic* and `code` spans into styled terminal
// text. Unterminated markers are left as-is.
func Render(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); {
		switch {
		case strings.HasPrefix(string(runes[i:]), "**"):
			if body, next, ok := span(runes, i+2, "**"); ok {
				b.WriteString(boldStyle.Render(body))
				i = next
				continue
			}
		case runes[i] == '*':
			if body, next, ok := span(runes, i+1, "*"); ok {
				b.WriteString(italicStyle.Render(body))
				i = next
				continue
			}
		case runes[i] == '`':
			if body, next, ok := span(runes, i+1, "`"); ok {
				b.WriteString(codeStyle.Render(body))
				i = next
				continue
			}
		}
		b.WriteRune(runes[i])
		i++
	}
	return b.String()
}

// span scans for the closing marker starting at from and returns the span
// body and the index just past the marker.
func span(runes []rune, from int, marker string) (string, int, bool) {
	rest := string(runes[from:])
	idx := strings.Index(rest, marker)
	if idx <= 0 {
		return "", 0, false
	}
	body := rest[:idx]
	return body, from + len([]rune(body)) + len([]rune(marker)), true
}
