// Package parser extracts transcript entries from archived log pages.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"chatlogs/internal/domain"
)

// HTMLParser reads pages whose first definition list holds the transcript:
//
//	<dl>
//	  <dt><a href="#10:00">10:00</a> [alice]</dt>
//	  <dd>Hello World</dd>
//	</dl>
//
// Each dt carries the timestamp (text of its link) and author; each dd the
// message text. Entries are paired in document order.
type HTMLParser struct{}

func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Parse returns the page's triples in order. A page without a definition
// list has no entries.
func (p *HTMLParser) Parse(body []byte) ([]domain.Triple, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcript page: %w", err)
	}

	dl := findFirst(doc, atom.Dl)
	if dl == nil {
		return nil, nil
	}

	var heads []domain.Triple
	var texts []string
	for c := dl.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Dt:
			heads = append(heads, parseHead(c))
		case atom.Dd:
			texts = append(texts, textContent(c))
		}
	}

	n := len(heads)
	if len(texts) < n {
		n = len(texts)
	}
	triples := make([]domain.Triple, n)
	for i := 0; i < n; i++ {
		triples[i] = heads[i]
		triples[i].Text = texts[i]
	}
	return triples, nil
}

// parseHead reads the timestamp from the dt's link and the author from the
// text that follows it.
func parseHead(dt *html.Node) domain.Triple {
	var t domain.Triple
	link := findFirst(dt, atom.A)
	if link != nil {
		t.Timestamp = textContent(link)
	}

	var author strings.Builder
	started := link == nil
	for c := dt.FirstChild; c != nil; c = c.NextSibling {
		if !started {
			if c == link || containsNode(c, link) {
				started = true
			}
			continue
		}
		author.WriteString(textContent(c))
	}
	t.Author = strings.Trim(strings.TrimSpace(author.String()), " []")
	return t
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func containsNode(root, target *html.Node) bool {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c == target || containsNode(c, target) {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
