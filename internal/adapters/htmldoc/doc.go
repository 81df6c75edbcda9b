// Package htmldoc is a page host over a parsed HTML document
//
// Inputs get stable handles when they enter the document: the id attribute when it is
// unique, otherwise input-N. Insert and Remove stand in for live DOM mutations and are
// delivered to subscribers after the document lock is released
package htmldoc

import (
	"context"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	perr "codefill/internal/platform/errors"
	"codefill/internal/platform/logger"
	"codefill/internal/services/scan/domain"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxContext bounds the nearby text kept per field
const maxContext = 512

// maxPage bounds a fetched page
const maxPage = 4 << 20

// Doc is a mutable HTML page
type Doc struct {
	mu      sync.Mutex
	root    *html.Node
	host    string
	handles map[*html.Node]string
	nodes   map[string]*html.Node
	next    int

	subMu   sync.Mutex
	subs    map[int]func(domain.Mutation)
	subNext int

	log *logger.Logger
}

// Parse reads a page; pageURL supplies the domain hint and may be empty
func Parse(r io.Reader, pageURL string) (*Doc, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse html")
	}
	d := &Doc{
		root:    root,
		host:    hostOf(pageURL),
		handles: make(map[*html.Node]string),
		nodes:   make(map[string]*html.Node),
		subs:    make(map[int]func(domain.Mutation)),
		log:     logger.Named("htmldoc"),
	}
	d.index(root)
	return d, nil
}

// Fetch downloads and parses a page
func Fetch(ctx context.Context, hc *http.Client, pageURL string) (*Doc, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "page url %q", pageURL)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "fetch page")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "fetch page: status %d", resp.StatusCode)
	}
	return Parse(io.LimitReader(resp.Body, maxPage), resp.Request.URL.String())
}

// Domain returns the page host name
func (d *Doc) Domain() string { return d.host }

// Elements yields the page's inputs in document order
// The walk works on a snapshot so callers may mutate the page while iterating
func (d *Doc) Elements() iter.Seq[domain.Element] {
	return func(yield func(domain.Element) bool) {
		d.mu.Lock()
		var els []domain.Element
		for n := range walk(d.root) {
			if isField(n) {
				els = append(els, domain.Element{Handle: d.handles[n], Descriptor: describe(n)})
			}
		}
		d.mu.Unlock()

		for _, el := range els {
			if !yield(el) {
				return
			}
		}
	}
}

// Attached reports whether handle is still in the document
func (d *Doc) Attached(handle string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[handle]
	return ok && connected(n, d.root)
}

// Fill writes value into the field and tells subscribers, the way a page hears an input event
func (d *Doc) Fill(handle, value string) error {
	d.mu.Lock()
	n, ok := d.nodes[handle]
	if !ok || !connected(n, d.root) {
		d.mu.Unlock()
		return perr.NotFoundf("field %s is not on the page", handle)
	}
	setAttr(n, "value", value)
	d.mu.Unlock()

	d.log.Debug().Str("field", handle).Msg("input")
	d.notify(domain.Mutation{Kind: domain.ValueChanged, Handles: []string{handle}})
	return nil
}

// Value returns the field's current value
func (d *Doc) Value(handle string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[handle]
	if !ok {
		return "", false
	}
	return attr(n, "value"), true
}

// Insert parses fragment into the element parent, or into body when parent is empty,
// and returns the handles of the inputs it added
func (d *Doc) Insert(parent, fragment string) ([]string, error) {
	d.mu.Lock()
	target := d.body()
	if parent != "" {
		n, ok := d.nodes[parent]
		if !ok {
			d.mu.Unlock()
			return nil, perr.NotFoundf("element %s is not on the page", parent)
		}
		target = n
	}
	kids, err := html.ParseFragment(strings.NewReader(fragment), target)
	if err != nil {
		d.mu.Unlock()
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse fragment")
	}
	var added []string
	for _, k := range kids {
		target.AppendChild(k)
		added = append(added, d.index(k)...)
	}
	d.mu.Unlock()

	if len(added) > 0 {
		d.notify(domain.Mutation{Kind: domain.Inserted, Handles: added})
	}
	return added, nil
}

// Remove detaches the element and everything under it
func (d *Doc) Remove(handle string) error {
	d.mu.Lock()
	n, ok := d.nodes[handle]
	if !ok || n.Parent == nil {
		d.mu.Unlock()
		return perr.NotFoundf("element %s is not on the page", handle)
	}
	n.Parent.RemoveChild(n)
	var gone []string
	for c := range walk(n) {
		if h, ok := d.handles[c]; ok {
			gone = append(gone, h)
			delete(d.handles, c)
			delete(d.nodes, h)
		}
	}
	d.mu.Unlock()

	d.notify(domain.Mutation{Kind: domain.Removed, Handles: gone})
	return nil
}

// Subscribe delivers mutations until the returned func is called
func (d *Doc) Subscribe(fn func(domain.Mutation)) func() {
	d.subMu.Lock()
	id := d.subNext
	d.subNext++
	d.subs[id] = fn
	d.subMu.Unlock()
	return func() {
		d.subMu.Lock()
		delete(d.subs, id)
		d.subMu.Unlock()
	}
}

// Render writes the page as HTML
func (d *Doc) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

func (d *Doc) notify(m domain.Mutation) {
	d.subMu.Lock()
	fns := make([]func(domain.Mutation), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.subMu.Unlock()
	for _, fn := range fns {
		fn(m)
	}
}

// index hands out handles for every element under n; call with mu held
func (d *Doc) index(n *html.Node) []string {
	var fields []string
	for c := range walk(n) {
		if c.Type != html.ElementNode {
			continue
		}
		if _, ok := d.handles[c]; ok {
			continue
		}
		h := attr(c, "id")
		if _, taken := d.nodes[h]; h == "" || taken {
			d.next++
			h = c.Data + "-" + strconv.Itoa(d.next)
		}
		d.handles[c] = h
		d.nodes[h] = c
		if isField(c) {
			fields = append(fields, h)
		}
	}
	return fields
}

func (d *Doc) body() *html.Node {
	for n := range walk(d.root) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			return n
		}
	}
	return d.root
}

func hostOf(pageURL string) string {
	if pageURL == "" {
		return ""
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
