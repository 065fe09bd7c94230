package export

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"resumecraft/internal/errors"
	"resumecraft/internal/templates"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	rootID      = "resume-root"
	containerID = "print-container"
)

// interactiveTags never reach a print document.
var interactiveTags = []atom.Atom{atom.Button, atom.Select, atom.Input, atom.Textarea, atom.Form, atom.Script, atom.Nav}

// hiddenClasses mark hover-only or screen-only elements.
var hiddenClasses = []string{"opacity-0", "group-hover:opacity-100", "no-print"}

// PrintExporter builds a standalone page holding only the resume, with A4
// print rules, that opens the print dialog when loaded.
type PrintExporter struct {
	logger *errors.Logger
}

func NewPrintExporter(logger *errors.Logger) *PrintExporter {
	if logger == nil {
		logger = errors.Discard()
	}
	return &PrintExporter{logger: logger}
}

func (e *PrintExporter) Strategy() Strategy { return StrategyPrint }

func (e *PrintExporter) Export(ctx context.Context, in Input) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := PrintDocument(in, true)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Print document prepared", "name", in.Name, "bytes", len(data))
	return &Artifact{
		Name:        artifactName(in.Name, ".html"),
		ContentType: "text/html; charset=utf-8",
		Size:        len(data),
		Data:        data,
	}, nil
}

// PrintDocument extracts #resume-root from in.HTML, strips interactive
// controls and wraps the result in a print container. With autoPrint the
// page calls window.print() once loaded. Nothing is returned when the root
// is missing.
func PrintDocument(in Input, autoPrint bool) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(in.HTML))
	if err != nil {
		return nil, errors.NewPayloadError(errors.ErrCodeMalformedPayload, "failed to parse rendered HTML", err)
	}

	root := findByID(doc, rootID)
	if root == nil {
		return nil, ErrTargetNotFound
	}

	clone := cloneTree(root)
	stripInteractive(clone)
	setAttr(clone, "id", rootID)

	page := in.PageSize
	if page.WidthMM == 0 || page.HeightMM == 0 {
		page = A4
	}

	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	if title := findByTag(doc, atom.Title); title != nil {
		b.WriteString("<title>")
		b.WriteString(html.EscapeString(textOf(title)))
		b.WriteString("</title>\n")
	}
	for _, style := range findAllByTag(doc, atom.Style) {
		if err := html.Render(&b, style); err != nil {
			return nil, renderError(err)
		}
		b.WriteString("\n")
	}
	b.WriteString("<style>\n")
	b.WriteString(printCSS(page))
	if css := templates.StyleText(in.PrintCSS); css != "" {
		b.WriteString(css)
		b.WriteString("\n")
	}
	b.WriteString("</style>\n</head>\n<body>\n")
	fmt.Fprintf(&b, "<div id=%q>", containerID)
	if err := html.Render(&b, clone); err != nil {
		return nil, renderError(err)
	}
	b.WriteString("</div>\n")
	if autoPrint {
		b.WriteString("<script>window.addEventListener(\"load\", function () { window.print(); });</script>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.Bytes(), nil
}

func printCSS(p PageSize) string {
	return fmt.Sprintf(`@page { size: %[1]gmm %[2]gmm; margin: 0; }
html, body { margin: 0; padding: 0; background: #fff; }
#%[3]s { width: %[1]gmm; margin: 0 auto; }
#%[3]s .resume-page { width: %[1]gmm; min-height: %[2]gmm; margin: 0; box-shadow: none; border-radius: 0; }
@media print {
  html, body { width: %[1]gmm; height: %[2]gmm; }
  #%[3]s { position: absolute; left: 0; top: 0; }
  #%[3]s .resume-page { page-break-after: always; break-after: page; }
  #%[3]s .resume-page:last-child { page-break-after: auto; break-after: auto; }
}
`, p.WidthMM, p.HeightMM, containerID)
}

func renderError(err error) error {
	return errors.NewInternalError(errors.ErrCodeExportFailed, "failed to render print document", err)
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findByTag(n *html.Node, tag atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findAllByTag(n *html.Node, tag atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == tag {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// cloneTree deep-copies n without its parent and siblings.
func cloneTree(n *html.Node) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      slices.Clone(n.Attr),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(cloneTree(c))
	}
	return out
}

func stripInteractive(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && isInteractive(c) {
			n.RemoveChild(c)
		} else {
			stripInteractive(c)
		}
		c = next
	}
}

func isInteractive(n *html.Node) bool {
	if slices.Contains(interactiveTags, n.DataAtom) {
		return true
	}
	for _, class := range strings.Fields(attr(n, "class")) {
		if slices.Contains(hiddenClasses, class) {
			return true
		}
	}
	return false
}
