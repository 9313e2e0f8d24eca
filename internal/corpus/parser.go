package corpus

import (
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// ParseResult contains the information extracted from one HTML document.
type ParseResult struct {
	// Title is the text of the first <title> element.
	Title string

	// Links contains the local page names referenced by <a href> elements,
	// in document order, without duplicates. Absolute URLs, fragments-only
	// references and non-navigational schemes are left out.
	Links []string
}

// Parse reads an HTML document and extracts its title and local links.
// Link targets are cleaned relative paths in Unicode NFC form, ready to be
// matched against file names of the corpus.
func Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links: make([]string, 0),
	}
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if target := localTarget(getAttr(n, "href")); target != "" && !seen[target] {
					seen[target] = true
					result.Links = append(result.Links, target)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// localTarget turns an href into a corpus-relative page name.
// It returns "" for references that cannot name a page of the corpus.
func localTarget(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.Scheme != "" || u.Host != "" || u.Path == "" {
		return ""
	}

	cleaned := path.Clean(u.Path)
	if cleaned == "." || cleaned == "/" {
		return ""
	}
	return norm.NFC.String(strings.TrimPrefix(cleaned, "./"))
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
