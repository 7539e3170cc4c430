package chat

import (
	"strings"
	"unicode/utf8"
)

const previewLimit = 100

// NormalizeText trims every line, drops empty ones and rejoins the rest
// with "\n". Whitespace-only input yields "".
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Preview is the thread summary text. It never exceeds 100 characters;
// longer text is cut and ends in "...".
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLimit-3]) + "..."
}

const (
	AutoSender      = "Admin (Auto)"
	welcomeTemplate = "Hi %s! Thanks for reaching out to Cainta Fresh Market. An admin will reply shortly. Our support hours are 8:00 AM to 8:00 PM daily."
)
