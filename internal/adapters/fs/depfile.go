package fs

import (
	"os"
	"strings"

	"go.trai.ch/zerr"
	"minicargo/internal/core/domain"
)

// DepfileReader parses make-style dependency files on disk.
type DepfileReader struct{}

// NewDepfileReader creates a new DepfileReader.
func NewDepfileReader() *DepfileReader {
	return &DepfileReader{}
}

// Read parses the depfile at path. A missing file yields an empty, non-nil
// Depfile rather than an error.
func (r *DepfileReader) Read(path string) (domain.Depfile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the planner's own naming policy
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Depfile{}, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read depfile"), "path", path)
	}
	return parseDepfile(string(data), path)
}

// parseDepfile implements the grammar `(target ':' path* '\n')*`: backslash
// escapes the following character when it is space or colon (the escaped
// character is emitted literally); any other backslash passes through as
// the pair `\X`; tokens are terminated by unescaped whitespace or colon.
func parseDepfile(data, path string) (domain.Depfile, error) {
	out := domain.Depfile{}

	lines := strings.Split(data, "\n")
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		target, rest, ok := splitOnUnescapedColon(line)
		if !ok {
			return nil, zerr.With(zerr.With(domain.ErrMalformedDepfile, "path", path), "line", line)
		}

		inputs := tokenize(rest)
		out[unescapeToken(target)] = append(out[unescapeToken(target)], inputsOf(inputs)...)
	}

	return out, nil
}

func inputsOf(tokens []string) []string {
	unescaped := make([]string, len(tokens))
	for i, t := range tokens {
		unescaped[i] = unescapeToken(t)
	}
	return unescaped
}

// splitOnUnescapedColon finds the first unescaped ':' and returns the raw
// (still-escaped) target token before it and the raw remainder after it.
func splitOnUnescapedColon(line string) (target, rest string, ok bool) {
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == ':' {
			return line[:i], line[i+1:], true
		}
	}
	return "", "", false
}

// tokenize splits rest on unescaped whitespace/colon boundaries, preserving
// escape sequences in each returned token for unescapeToken to resolve.
func tokenize(rest string) []string {
	var tokens []string
	var cur strings.Builder
	escaped := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if escaped {
			cur.WriteByte('\\')
			cur.WriteByte(c)
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case ' ', '\t', ':':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if escaped {
		cur.WriteByte('\\')
	}
	flush()

	return tokens
}

// unescapeToken resolves the escape sequences tokenize left intact: `\ ` and
// `\:` collapse to the literal character; any other `\X` pair is passed
// through unchanged.
func unescapeToken(tok string) string {
	var out strings.Builder
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c == '\\' && i+1 < len(tok) {
			next := tok[i+1]
			if next == ' ' || next == ':' {
				out.WriteByte(next)
				i++
				continue
			}
			out.WriteByte('\\')
			out.WriteByte(next)
			i++
			continue
		}
		out.WriteByte(c)
	}
	return out.String()
}
