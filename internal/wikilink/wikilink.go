// Package wikilink finds Obsidian-style wikilinks in note bodies.
//
// Wikilink grammar:
//
//	[[target]]
//	[[target|alias]]
//	[[target#heading]]
//	[[target^block-id]]
//	![[target]]        (embed)
//
// The target is the text before the first '|', '#' or '^', trimmed. Links
// inside fenced code blocks, indented code blocks and inline code spans are
// ignored.
package wikilink

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Match is a single wikilink occurrence in a body.
type Match struct {
	Target  string
	Anchor  string
	Alias   *string
	Embed   bool
	Start   int
	End     int
	Literal string
}

// re matches [[...]] optionally preceded by '!'. The inner text cannot span
// lines or contain brackets.
var re = regexp.MustCompile(`(!?)\[\[([^\[\]\n]+)\]\]`)

// FindAll returns every wikilink in body outside code, in document order.
func FindAll(body string) []Match {
	locs := re.FindAllStringSubmatchIndex(body, -1)
	if len(locs) == 0 {
		return nil
	}

	code := codeRanges(body)

	var out []Match
	for _, m := range locs {
		start, end := m[0], m[1]
		if inRanges(code, start) {
			continue
		}
		target, anchor, alias := splitInner(body[m[4]:m[5]])
		out = append(out, Match{
			Target:  target,
			Anchor:  anchor,
			Alias:   alias,
			Embed:   m[3] > m[2],
			Start:   start,
			End:     end,
			Literal: body[start:end],
		})
	}
	return out
}

// Targets returns the distinct link targets of body in first-occurrence
// order. Embeds, empty targets and links to self are left out.
func Targets(body, self string) []string {
	return collect(body, self, false)
}

// Embeds returns the distinct embed targets of body in first-occurrence order.
func Embeds(body string) []string {
	return collect(body, "", true)
}

func collect(body, self string, embeds bool) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range FindAll(body) {
		if m.Embed != embeds || m.Target == "" {
			continue
		}
		if self != "" && m.Target == self {
			continue
		}
		if _, ok := seen[m.Target]; ok {
			continue
		}
		seen[m.Target] = struct{}{}
		out = append(out, m.Target)
	}
	return out
}

// splitInner splits the text between the brackets into target, anchor and
// alias.
func splitInner(inner string) (target, anchor string, alias *string) {
	head := inner
	if i := strings.IndexByte(inner, '|'); i >= 0 {
		head = inner[:i]
		a := strings.TrimSpace(inner[i+1:])
		alias = &a
	}
	// Inside markdown tables the alias pipe is written as "\|".
	head = strings.TrimSuffix(head, `\`)

	target = head
	if i := strings.IndexAny(head, "#^"); i >= 0 {
		target = head[:i]
		anchor = strings.TrimSpace(head[i+1:])
	}
	return strings.TrimSpace(target), anchor, alias
}

type byteRange struct{ start, stop int }

// codeRanges returns the byte ranges of code blocks and code spans in body.
func codeRanges(body string) []byteRange {
	src := []byte(body)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var ranges []byteRange
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				ranges = append(ranges, byteRange{seg.Start, seg.Stop})
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			start, stop := -1, -1
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				t, ok := c.(*ast.Text)
				if !ok {
					continue
				}
				if start < 0 {
					start = t.Segment.Start
				}
				stop = t.Segment.Stop
			}
			if start >= 0 {
				ranges = append(ranges, byteRange{start, stop})
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })
	return ranges
}

func inRanges(ranges []byteRange, offset int) bool {
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].stop > offset })
	return i < len(ranges) && ranges[i].start <= offset
}
