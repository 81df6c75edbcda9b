package htmldoc

import (
	"iter"
	"strings"

	"codefill/internal/core/classify"
	pstrings "codefill/internal/platform/strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func isField(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Input
}

// describe builds the classifier view of an input
func describe(n *html.Node) classify.Descriptor {
	d := classify.Descriptor{
		Tag:          n.Data,
		Type:         strings.ToLower(attr(n, "type")),
		Name:         attr(n, "name"),
		ID:           attr(n, "id"),
		Placeholder:  attr(n, "placeholder"),
		AriaLabel:    attr(n, "aria-label"),
		Autocomplete: attr(n, "autocomplete"),
		InputMode:    attr(n, "inputmode"),
		MaxLength:    classify.ParseMaxLength(attr(n, "maxlength")),
		Attrs:        make(map[string]string, len(n.Attr)),
	}
	for _, a := range n.Attr {
		d.Attrs[strings.ToLower(a.Key)] = a.Val
	}
	if n.Parent != nil {
		d.Context = pstrings.Truncate(visibleText(n.Parent), maxContext)
	}
	return d
}

// visibleText is the container's rendered text with whitespace collapsed
func visibleText(n *html.Node) string {
	var parts []string
	var rec func(*html.Node)
	rec = func(c *html.Node) {
		if c.Type == html.ElementNode {
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		if c.Type == html.TextNode {
			parts = append(parts, strings.Fields(c.Data)...)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			rec(k)
		}
	}
	rec(n)
	return strings.Join(parts, " ")
}

// walk yields n and its descendants in document order
func walk(n *html.Node) iter.Seq[*html.Node] {
	return func(yield func(*html.Node) bool) {
		var rec func(*html.Node) bool
		rec = func(c *html.Node) bool {
			if !yield(c) {
				return false
			}
			for k := c.FirstChild; k != nil; {
				next := k.NextSibling
				if !rec(k) {
					return false
				}
				k = next
			}
			return true
		}
		rec(n)
	}
}

func connected(n, root *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
