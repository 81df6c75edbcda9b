package gmail

import (
	"encoding/base64"
	"strings"
	"time"

	pstrings "codefill/internal/platform/strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	gmailapi "google.golang.org/api/gmail/v1"
)

// decode flattens a full-format message into headers and text bodies
// Only text/plain is read, from a single part payload or from nested multiparts;
// text/html is read only when HTMLFallback is on and no text/plain part exists
func (c *Client) decode(m *gmailapi.Message) Message {
	out := Message{ID: m.Id}
	if m.InternalDate > 0 {
		out.Received = time.UnixMilli(m.InternalDate).UTC()
	}
	if m.Payload == nil {
		return out
	}
	for _, h := range m.Payload.Headers {
		switch {
		case strings.EqualFold(h.Name, "From"):
			out.From = h.Value
		case strings.EqualFold(h.Name, "Subject"):
			out.Subject = h.Value
		}
	}

	if len(m.Payload.Parts) == 0 {
		mt := mimeBase(m.Payload.MimeType)
		switch {
		case mt == "" || strings.EqualFold(mt, "text/plain"):
		case c.opts.HTMLFallback && strings.EqualFold(mt, "text/html"):
		default:
			return out
		}
		if s, ok := c.partText(m.Payload, mt); ok {
			out.Bodies = append(out.Bodies, s)
		}
		return out
	}

	out.Bodies = c.collect(m.Payload.Parts, "text/plain", nil)
	if len(out.Bodies) == 0 && c.opts.HTMLFallback {
		out.Bodies = c.collect(m.Payload.Parts, "text/html", nil)
	}
	return out
}

// collect walks nested multiparts depth first and keeps parts of mime type want
func (c *Client) collect(parts []*gmailapi.MessagePart, want string, acc []string) []string {
	for _, p := range parts {
		if p == nil {
			continue
		}
		if len(p.Parts) > 0 {
			acc = c.collect(p.Parts, want, acc)
			continue
		}
		if !strings.EqualFold(mimeBase(p.MimeType), want) {
			continue
		}
		if s, ok := c.partText(p, want); ok {
			acc = append(acc, s)
		}
	}
	return acc
}

func (c *Client) partText(p *gmailapi.MessagePart, mime string) (string, bool) {
	if p.Body == nil || p.Body.Data == "" {
		return "", false
	}
	raw, err := decodeData(p.Body.Data)
	if err != nil {
		c.log.Warn().Err(err).Str("part", p.PartId).Msg("gmail part not base64url")
		return "", false
	}
	s := string(raw)
	if c.opts.HTMLFallback && strings.EqualFold(mimeBase(mime), "text/html") {
		s = htmlText(s)
	}
	return s, true
}

// decodeData accepts base64url with or without padding
func decodeData(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

func mimeBase(mt string) string {
	base, _, _ := strings.Cut(mt, ";")
	return strings.TrimSpace(base)
}

// htmlText renders the visible text of an HTML body, one block per line
func htmlText(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return src
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Title:
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(t)
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
		if n.Type == html.ElementNode && blockLevel(n.DataAtom) {
			b.WriteByte('\n')
		}
	}
	walk(doc)
	return pstrings.Truncate(b.String(), maxHTMLText)
}

const maxHTMLText = 64 << 10

func blockLevel(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Tr, atom.Li, atom.Table, atom.H1, atom.H2, atom.H3, atom.H4:
		return true
	}
	return false
}
