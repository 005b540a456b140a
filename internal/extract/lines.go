package extract

import "strings"

// line is a trimmed, non-empty source line with its 1-based position.
type line struct {
	Num  int
	Text string
}

// splitLines returns the trimmed non-empty lines of text in order.
func splitLines(text string) []line {
	raw := strings.Split(text, "\n")
	out := make([]line, 0, len(raw))
	for i, r := range raw {
		t := strings.TrimSpace(r)
		if t == "" {
			continue
		}
		out = append(out, line{Num: i + 1, Text: t})
	}
	return out
}

func firstN(ls []line, n int) []line {
	if n >= len(ls) {
		return ls
	}
	return ls[:n]
}

func lastN(ls []line, n int) []line {
	if n >= len(ls) {
		return ls
	}
	return ls[len(ls)-n:]
}
