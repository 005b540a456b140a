package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reFormFeed   = regexp.MustCompile(`\f`)
)

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-=]{3,}\s*$`)

// Normalize collapses noisy whitespace. Characters are never rewritten, so
// digits and dates survive untouched. Line breaks are kept; more than two
// consecutive newlines collapse into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reFormFeed.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	// trim trailing spaces on lines
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	// collapse too many blank lines
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
