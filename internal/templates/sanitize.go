package templates

import (
	"html/template"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// inlineAllowed are the only elements kept in section content.
var inlineAllowed = map[atom.Atom]bool{
	atom.Strong: true,
	atom.B:      true,
	atom.Em:     true,
	atom.I:      true,
	atom.U:      true,
	atom.Br:     true,
}

// dropped elements lose their content as well as their tags.
var dropped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Template: true,
}

var fragmentContext = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

// Inline renders s as trusted HTML keeping only emphasis markup and line
// breaks. Attributes are always dropped; other elements are unwrapped.
func Inline(s string) template.HTML {
	if !strings.ContainsAny(s, "<&") {
		return template.HTML(template.HTMLEscapeString(s))
	}
	nodes, err := html.ParseFragment(strings.NewReader(s), fragmentContext)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	var b strings.Builder
	for _, n := range nodes {
		writeInline(&b, n)
	}
	return template.HTML(b.String())
}

func writeInline(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(html.EscapeString(n.Data))
		return
	case html.ElementNode:
		if dropped[n.DataAtom] {
			return
		}
		if inlineAllowed[n.DataAtom] {
			b.WriteString("<" + n.Data + ">")
			if n.DataAtom == atom.Br {
				return
			}
			writeChildren(b, n)
			b.WriteString("</" + n.Data + ">")
			return
		}
	}
	writeChildren(b, n)
}

func writeChildren(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeInline(b, c)
	}
}

// PlainText strips every tag from s, for the text and markdown formatters.
func PlainText(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	nodes, err := html.ParseFragment(strings.NewReader(s), fragmentContext)
	if err != nil {
		return s
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteString("\n")
		case n.Type == html.ElementNode && dropped[n.DataAtom]:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return b.String()
}

// StyleText keeps descriptor CSS from closing the style element it is
// embedded in. Removal repeats until no "</" remains.
func StyleText(css string) string {
	for strings.Contains(css, "</") {
		css = strings.ReplaceAll(css, "</", "")
	}
	return strings.TrimSpace(css)
}
