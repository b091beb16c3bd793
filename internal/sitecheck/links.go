package sitecheck

import (
	"io"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// linkAttrs maps elements to the attribute holding a URL worth checking.
var linkAttrs = map[string]string{ //nolint:gochecknoglobals // lookup table
	"a":      "href",
	"link":   "href",
	"script": "src",
	"img":    "src",
	"source": "src",
	"video":  "poster",
}

// extractLinks returns the distinct same-origin http(s) links of an HTML
// document, resolved against page and stripped of fragments.
func extractLinks(page *url.URL, body io.Reader) ([]string, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key != attr {
						continue
					}
					if link, ok := resolveLink(page, a.Val); ok {
						seen[link] = struct{}{}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	links := make([]string, 0, len(seen))
	for l := range seen {
		links = append(links, l)
	}
	sort.Strings(links)
	return links, nil
}

func resolveLink(page *url.URL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	u := page.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(u.Host, page.Host) {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), true
}
