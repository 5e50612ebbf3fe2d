package stix

import (
	"fmt"
	"strings"
)

// Comparison is a single observable test inside a STIX pattern, e.g.
// ipv4-addr:value = '203.0.113.77'.
type Comparison struct {
	Path  string
	Op    string
	Value string
}

// PatternParseError marks a pattern the rewriter could not understand.
// Callers treat it as a signal to fall back to full anonymization for the
// affected object.
type PatternParseError struct {
	Pattern string
	Reason  string
}

func (e *PatternParseError) Error() string {
	return fmt.Sprintf("unparseable STIX pattern: %s", e.Reason)
}

// RewritePattern walks a STIX pattern expression and replaces every quoted
// observable value with the result of rewrite(path, value). Structure,
// operators, and boolean connectives are preserved verbatim.
func RewritePattern(pattern string, rewrite func(path, value string) string) (string, error) {
	comparisons, out, err := scanPattern(pattern, rewrite)
	if err != nil {
		return "", err
	}
	if comparisons == 0 {
		return "", &PatternParseError{Pattern: pattern, Reason: "no comparisons found"}
	}
	return out, nil
}

// ExtractComparisons returns the observable tests found in a pattern.
func ExtractComparisons(pattern string) ([]Comparison, error) {
	var found []Comparison
	n, _, err := scanPattern(pattern, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &PatternParseError{Pattern: pattern, Reason: "no comparisons found"}
	}
	_, _, _ = scanPattern(pattern, func(path, value string) string {
		found = append(found, Comparison{Path: path, Value: value})
		return value
	})
	return found, nil
}

// scanPattern is the shared lexer. It tracks bracket balance, the most
// recent object path token (identifier containing a colon), and quoted
// string literals. When rewrite is non-nil each literal is replaced by its
// return value in the rebuilt pattern.
func scanPattern(pattern string, rewrite func(path, value string) string) (int, string, error) {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" {
		return 0, "", &PatternParseError{Pattern: pattern, Reason: "empty pattern"}
	}

	var (
		out         strings.Builder
		ident       strings.Builder
		currentPath string
		depth       int
		comparisons int
	)

	flushIdent := func() {
		if ident.Len() == 0 {
			return
		}
		tok := ident.String()
		if strings.Contains(tok, ":") {
			currentPath = tok
		}
		out.WriteString(tok)
		ident.Reset()
	}

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '[':
			flushIdent()
			depth++
			out.WriteRune(c)
		case c == ']':
			flushIdent()
			depth--
			if depth < 0 {
				return 0, "", &PatternParseError{Pattern: pattern, Reason: "unbalanced brackets"}
			}
			out.WriteRune(c)
		case c == '\'':
			flushIdent()
			if currentPath == "" {
				return 0, "", &PatternParseError{Pattern: pattern, Reason: "string literal without object path"}
			}
			var value strings.Builder
			closed := false
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '\\' && j+1 < len(runes) {
					value.WriteRune(runes[j+1])
					j++
					continue
				}
				if runes[j] == '\'' {
					i = j
					closed = true
					break
				}
				value.WriteRune(runes[j])
			}
			if !closed {
				return 0, "", &PatternParseError{Pattern: pattern, Reason: "unterminated string literal"}
			}
			comparisons++
			v := value.String()
			if rewrite != nil {
				v = rewrite(currentPath, v)
			}
			out.WriteByte('\'')
			out.WriteString(escapePatternLiteral(v))
			out.WriteByte('\'')
		case isIdentRune(c):
			ident.WriteRune(c)
		default:
			flushIdent()
			out.WriteRune(c)
		}
	}
	flushIdent()

	if depth != 0 {
		return 0, "", &PatternParseError{Pattern: pattern, Reason: "unbalanced brackets"}
	}
	return comparisons, out.String(), nil
}

func isIdentRune(c rune) bool {
	return c == '-' || c == '_' || c == ':' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func escapePatternLiteral(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
