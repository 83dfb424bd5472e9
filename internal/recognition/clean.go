package recognition

import "strings"

// CleanText normalizes raw OCR output: runs of spaces and tabs collapse to a
// single space, blank lines are dropped, and the whole string is trimmed.
// The function is idempotent: CleanText(CleanText(s)) == CleanText(s).
func CleanText(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, strings.Join(fields, " "))
	}
	return strings.Join(lines, "\n")
}
