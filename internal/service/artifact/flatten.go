package artifact

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
)

// Flatten parses markdown and returns plain text lines suitable for the
// simple PDF layout: headings and inline emphasis markers are dropped,
// code blocks keep their raw lines, paragraphs become single lines
// separated by blanks.
func Flatten(source []byte) []string {
	doc := goldmark.New().Parser().Parse(gtext.NewReader(source))

	var lines []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if entering {
				flush()
			} else {
				flush()
				lines = append(lines, "")
			}

		case *ast.Paragraph:
			if !entering {
				flush()
				lines = append(lines, "")
			}

		case *ast.TextBlock:
			if !entering {
				flush()
			}

		case *ast.Text:
			if entering {
				current.Write(node.Segment.Value(source))
			}

		case *ast.FencedCodeBlock:
			if entering {
				appendRawLines(&lines, n, source)
				lines = append(lines, "")
				return ast.WalkSkipChildren, nil
			}

		case *ast.CodeBlock:
			if entering {
				appendRawLines(&lines, n, source)
				lines = append(lines, "")
				return ast.WalkSkipChildren, nil
			}
		}
		return ast.WalkContinue, nil
	})
	flush()

	// Drop a trailing blank separator.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func appendRawLines(lines *[]string, n ast.Node, source []byte) {
	segments := n.Lines()
	for i := 0; i < segments.Len(); i++ {
		seg := segments.At(i)
		*lines = append(*lines, strings.TrimRight(string(seg.Value(source)), "\n"))
	}
}
