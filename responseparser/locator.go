package responseparser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

var (
	jsonTagRe    = regexp.MustCompile(`(?is)<json>(.*?)</json>`)
	jsonPrefixRe = regexp.MustCompile(`(?i)json:`)
)

// locate scans raw model output and returns the substring most likely to hold
// the intended JSON document. Strategies run in a fixed priority order and
// the first hit wins:
//
//  1. fenced code block labeled json
//  2. any unlabeled fenced code block
//  3. <json>...</json> tags
//  4. a literal "JSON:" lead-in followed by a brace window
//  5. first { to last }, only if the brace counts inside the window match
//  6. first [ to last ]
//
// The candidate comes back trimmed but otherwise untouched; cleaning and
// repair happen later.
func locate(raw string) (string, bool) {
	if c, ok := locateFenced(raw); ok {
		return c, true
	}
	if m := jsonTagRe.FindStringSubmatch(raw); m != nil {
		if c := strings.TrimSpace(m[1]); c != "" {
			return c, true
		}
	}
	if loc := jsonPrefixRe.FindStringIndex(raw); loc != nil {
		if c, ok := objectOrArrayWindow(raw[loc[1]:]); ok {
			return c, true
		}
	}
	return objectOrArrayWindow(raw)
}

// objectOrArrayWindow resolves strategies 5 and 6. When brackets enclose the
// braces, the text is a top-level array of objects: the first{...last} window
// balances there too but strips the brackets, leaving "{...},{...}" that can
// never parse, so the bracket window must win.
func objectOrArrayWindow(s string) (string, bool) {
	if bracketsEncloseBraces(s) {
		return bracketWindow(s)
	}
	if c, ok := braceWindow(s); ok {
		return c, true
	}
	return bracketWindow(s)
}

func bracketsEncloseBraces(s string) bool {
	bStart := strings.Index(s, "[")
	bEnd := strings.LastIndex(s, "]")
	oStart := strings.Index(s, "{")
	oEnd := strings.LastIndex(s, "}")
	return bStart != -1 && bEnd != -1 && oStart != -1 && bStart < oStart && bEnd > oEnd
}

// locateFenced walks the markdown AST for fenced code blocks. A block labeled
// json anywhere in the text outranks the first unlabeled block.
func locateFenced(raw string) (string, bool) {
	src := []byte(raw)
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var labeled, unlabeled string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		content := strings.TrimSpace(string(fenceContent(fence, src)))
		if content == "" {
			return ast.WalkContinue, nil
		}
		lang := string(bytes.ToLower(fence.Language(src)))
		switch {
		case lang == "json":
			labeled = content
			return ast.WalkStop, nil
		case lang == "" && unlabeled == "":
			unlabeled = content
		}
		return ast.WalkContinue, nil
	})

	if labeled != "" {
		return labeled, true
	}
	if unlabeled != "" {
		return unlabeled, true
	}
	return "", false
}

func fenceContent(fence *ast.FencedCodeBlock, src []byte) []byte {
	var buf bytes.Buffer
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.Bytes()
}

// braceWindow takes the span from the first { to the last }. The count check
// is a cheap sanity filter, not a parser: an unbalanced window is rejected so
// the caller can fall through to the next strategy.
func braceWindow(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	window := s[start : end+1]
	if strings.Count(window, "{") != strings.Count(window, "}") {
		return "", false
	}
	return strings.TrimSpace(window), true
}

func bracketWindow(s string) (string, bool) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	return strings.TrimSpace(s[start : end+1]), true
}
