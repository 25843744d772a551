package cliutil

import (
	"strings"
)

// Wrap the string `s` to a maximum width `w`.  Pass `w` == 0 to do no wrapping.
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func Wrap(w int, s string) string {
	return wrap(0, w, s)
}

// Wrap the string `s` to a maximum width `w` with leading indent `i`.  The first line is not
// indented (this is assumed to be done by caller).  Pass `w` == 0 to do no wrapping
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func WrapIndent(i, w int, s string) string {
	return wrap(i, w, s)
}

func wrap(indent, width int, s string) string {
	if width <= 0 {
		return s
	}
	prefix := strings.Repeat(" ", indent)
	var out strings.Builder
	for n, line := range strings.Split(s, "\n") {
		if n > 0 {
			out.WriteString("\n")
			out.WriteString(prefix)
		}
		// Lines that start with whitespace are pre-formatted (examples, YAML snippets).
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			out.WriteString(line)
			continue
		}
		wrapLine(&out, prefix, indent, width, line)
	}
	return out.String()
}

func wrapLine(out *strings.Builder, prefix string, indent, width int, line string) {
	// Splitting on single spaces keeps the empty words between double spaces, so that
	// "sentence.  Sentence" survives re-joining.
	words := strings.Split(line, " ")
	cur := words[0]
	for i := 1; i < len(words); i++ {
		word := words[i]
		if rest := strings.Join(words[i:], " "); indent+len(cur)+1+len(rest) <= width {
			cur += " " + rest
			break
		}
		if word != "" && indent+len(cur)+1+len(word) >= width-5 {
			out.WriteString(strings.TrimRight(cur, " "))
			out.WriteString("\n")
			out.WriteString(prefix)
			cur = word
			continue
		}
		cur += " " + word
	}
	out.WriteString(cur)
}
