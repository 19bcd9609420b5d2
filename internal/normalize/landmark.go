package normalize

import (
	"errors"
	"strconv"
	"strings"
)

// CutLandmarks returns the portion of text after the first occurrence
// of after and before the next occurrence of before. Empty or absent
// landmarks leave that side of the text unchanged.
func CutLandmarks(text, after, before string) string {
	out := text
	if after != "" {
		if i := strings.Index(out, after); i >= 0 {
			out = out[i+len(after):]
		}
	}
	if before != "" {
		if i := strings.Index(out, before); i >= 0 {
			out = out[:i]
		}
	}
	return out
}

// ParseNumberWithCommas parses figures as sites print them, with
// thousands separators: "1,234,567".
func ParseNumberWithCommas(s string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0, errors.New("empty number")
	}
	return strconv.ParseInt(cleaned, 10, 64)
}
