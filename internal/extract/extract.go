// Package extract turns fetched HTML into the raw shard record fields:
// page title, visible text, and outbound links.
package extract

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Page is the extracted content of one fetched document.
type Page struct {
	Title        string
	Text         string
	ExternalURLs []string
}

// Parse walks the HTML document, skipping script/style subtrees,
// collecting text nodes and href targets. Relative links are resolved
// against base; duplicate targets are kept once, in first-seen order.
func Parse(r io.Reader, base *url.URL) (Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Page{}, err
	}

	var page Page
	var text strings.Builder
	seen := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if page.Title == "" && n.FirstChild != nil {
					page.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if link := hrefOf(n, base); link != "" {
					if _, dup := seen[link]; !dup {
						seen[link] = struct{}{}
						page.ExternalURLs = append(page.ExternalURLs, link)
					}
				}
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if text.Len() > 0 {
					text.WriteByte(' ')
				}
				text.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	page.Text = text.String()
	return page, nil
}

func hrefOf(n *html.Node, base *url.URL) string {
	for _, attr := range n.Attr {
		if attr.Key != "href" {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(attr.Val))
		if err != nil {
			return ""
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return ""
		}
		ref.Fragment = ""
		return ref.String()
	}
	return ""
}
