// internal/llmutil/sanitize.go
package llmutil

import (
	"regexp"
	"strings"
)

var (
	// thinkBlockRegex matches a complete reasoning block emitted by thinking models.
	thinkBlockRegex = regexp.MustCompile(`(?is)<think>.*?</think>`)
	// openThinkRegex matches an opening tag whose block was never closed (truncated output).
	openThinkRegex = regexp.MustCompile(`(?is)<think>.*$`)
	// fenceRegex matches markdown code fence markers with an optional language tag.
	// \x60 is a backtick; raw strings cannot contain one.
	fenceRegex = regexp.MustCompile("(?i)\x60\x60\x60[a-z]*")
)

const closeThinkTag = "</think>"

// StripThinking removes <think>...</think> blocks. An unterminated opening tag
// drops everything after it, and a closing tag with no opener drops everything
// before it (some chat templates inject the opener into the prompt).
func StripThinking(text string) string {
	text = thinkBlockRegex.ReplaceAllString(text, "")
	text = openThinkRegex.ReplaceAllString(text, "")
	if idx := strings.LastIndex(strings.ToLower(text), closeThinkTag); idx >= 0 {
		text = text[idx+len(closeThinkTag):]
	}
	return text
}

// StripLineComments removes // comments that occur outside double-quoted
// strings. The comment runs up to, but not including, the end of the line.
// Escapes are tracked so "a\"//b" stays intact, and "https://x" is never cut.
func StripLineComments(text string) string {
	if !strings.Contains(text, "//") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '/' && i+1 < len(text) && text[i+1] == '/' {
			// Skip to the newline; the loop writes it on the next iteration.
			for i+1 < len(text) && text[i+1] != '\n' {
				i++
			}
			i++ // past the second slash or the last comment byte
			if i < len(text) && text[i] == '\n' {
				b.WriteByte('\n')
			}
			continue
		}

		if c == '"' {
			inString = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

// StripFences removes markdown code fence markers, keeping their content.
func StripFences(text string) string {
	return strings.TrimSpace(fenceRegex.ReplaceAllString(text, ""))
}

// balancedSpan returns the end index (exclusive) of the bracketed value that
// opens at text[start], or -1 when it never closes. Brackets inside
// double-quoted strings are ignored.
func balancedSpan(text string, start int) int {
	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// jsonCandidates yields every balanced top-level [...] or {...} value in text,
// left to right. Scanning resumes after the end of each candidate so nested
// values of a rejected candidate are never offered on their own.
func jsonCandidates(text string) []string {
	var out []string
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		end := balancedSpan(text, i)
		if end < 0 {
			continue
		}
		out = append(out, text[i:end])
		i = end - 1
	}
	return out
}
