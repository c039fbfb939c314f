package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// ParseHTML reads HTML where <hr> or a CSS page break starts a new page.
func ParseHTML(r io.Reader) (*PagedDocument, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var pg pager
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if breaksBefore(n) {
				pg.pageBreak()
			}
			switch n.Data {
			case "script", "style", "head", "template":
				return
			case "hr":
				pg.pageBreak()
				return
			case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr", "caption", "figcaption", "pre", "dt", "dd":
				for _, l := range strings.Split(textLines(n), "\n") {
					if l = strings.TrimSpace(l); l != "" {
						pg.line(l)
					}
				}
				if breaksAfter(n) {
					pg.pageBreak()
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && breaksAfter(n) {
			pg.pageBreak()
		}
	}
	walk(doc)

	return pg.document(), nil
}

// textLines flattens an element's text. <br> becomes a newline and table
// cells are separated by two spaces.
func textLines(n *html.Node) string {
	var buf bytes.Buffer
	space := func() {
		b := buf.Bytes()
		if len(b) > 0 && b[len(b)-1] != ' ' && b[len(b)-1] != '\n' {
			buf.WriteByte(' ')
		}
	}

	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			words := strings.Fields(n.Data)
			if len(words) == 0 {
				if n.Data != "" {
					space()
				}
				break
			}
			if unicode.IsSpace(rune(n.Data[0])) {
				space()
			}
			buf.WriteString(strings.Join(words, " "))
			if unicode.IsSpace(rune(n.Data[len(n.Data)-1])) {
				space()
			}
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte('\n')
		case n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th"):
			if buf.Len() > 0 {
				buf.WriteString("  ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func breaksBefore(n *html.Node) bool {
	style := styleOf(n)
	return strings.Contains(style, "page-break-before:always") || strings.Contains(style, "break-before:page")
}

func breaksAfter(n *html.Node) bool {
	style := styleOf(n)
	return strings.Contains(style, "page-break-after:always") || strings.Contains(style, "break-after:page")
}

// styleOf returns the inline style with whitespace removed and lowercased.
func styleOf(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "style" {
			return strings.ToLower(strings.Join(strings.Fields(a.Val), ""))
		}
	}
	return ""
}
