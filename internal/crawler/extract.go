package crawler

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/indexer/tokenizer"
)

// hiddenElements never contribute visible text.
var hiddenElements = map[atom.Atom]struct{}{
	atom.Style:  {},
	atom.Script: {},
	atom.Head:   {},
	atom.Title:  {},
	atom.Meta:   {},
}

// page is what the crawler keeps from one parsed HTML document.
type page struct {
	words []string
	links []string
}

// parsePage extracts the visible words and the filtered, absolute links of
// an HTML document. base resolves relative hrefs; filter may be nil.
func parsePage(r io.Reader, base *url.URL, filter *regexp.Regexp) (*page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var text strings.Builder
	p := &page{}
	seen := make(map[string]struct{})

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if _, hidden := hiddenElements[n.DataAtom]; hidden {
				return
			}
			if n.DataAtom == atom.A {
				addLink(n, base, filter, p, seen)
			}
		case html.TextNode:
			text.WriteString(n.Data)
			text.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	p.words = tokenizer.Words(text.String())
	return p, nil
}

func addLink(n *html.Node, base *url.URL, filter *regexp.Regexp, p *page, seen map[string]struct{}) {
	for _, attr := range n.Attr {
		if attr.Key != "href" {
			continue
		}
		if filter != nil && !filter.MatchString(attr.Val) {
			return
		}
		abs, ok := resolveLink(base, attr.Val)
		if !ok {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		p.links = append(p.links, abs)
		return
	}
}

// resolveLink makes href absolute against base and drops the fragment. Only
// http and https targets are kept.
func resolveLink(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String(), true
}
