package responseparser

import (
	"regexp"
	"strings"
)

var (
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

// clean normalizes a candidate before each parse attempt. It is idempotent:
// cleaning already-clean text changes nothing.
func (p *Parser) clean(s string) string {
	s = stripControl(s)
	s = stripTrailingCommas(s)
	if p.cfg.CollapseWhitespace {
		s = whitespaceRunRe.ReplaceAllString(s, " ")
	}
	return strings.TrimSpace(s)
}

// stripControl drops non-printable control characters, keeping line feeds and
// tabs so line-oriented repair still sees line boundaries. Covers both the C0
// range (plus DEL) and the C1 range that sneaks in through decoded latin-1.
func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stripTrailingCommas removes commas that directly precede a closing } or ].
// Replacement loops until stable so stacked commas (",,}") cannot survive a
// single pass and break idempotence.
func stripTrailingCommas(s string) string {
	for {
		out := trailingCommaRe.ReplaceAllString(s, "$1")
		if out == s {
			return out
		}
		s = out
	}
}

// repairQuotes is the best-effort pass applied between failed parse attempts.
// It assumes one "key": "value" pair per line and re-escapes bare quotes
// inside the value. Lines it cannot confidently split pass through verbatim.
// Its scope is frozen: it exists for the exact patterns pinned in the tests,
// nothing broader.
func repairQuotes(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if !strings.Contains(line, `":`) || strings.Count(line, `"`) <= 2 {
			continue
		}
		keyEnd := strings.Index(line, `":`)
		keyPart := line[:keyEnd+2]
		valuePart := strings.TrimSpace(line[keyEnd+2:])
		if len(valuePart) < 2 || !strings.HasPrefix(valuePart, `"`) || !strings.HasSuffix(valuePart, `"`) {
			continue
		}
		inner := valuePart[1 : len(valuePart)-1]
		inner = strings.ReplaceAll(inner, `"`, `\"`)
		lines[i] = keyPart + ` "` + inner + `"`
	}
	return strings.Join(lines, "\n")
}
