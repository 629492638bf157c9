package attempt

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

const excerptSuffix = "..."

// FailureXPath matches elements whose text contains any keyword, ignoring
// ASCII case.
func FailureXPath(keywords []string) string {
	conds := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "'", "")
		if k == "" {
			continue
		}
		conds = append(conds, fmt.Sprintf("contains(translate(., 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), '%s')", k))
	}
	if len(conds) == 0 {
		return ""
	}
	return fmt.Sprintf("//*[%s]", strings.Join(conds, " or "))
}

// Classify decides the outcome from the page reached after submission. A
// success keyword in the lowercased URL or source wins; otherwise a failure
// keyword in the document text means the credentials were rejected.
func Classify(currentURL, source string, success, failure []string, excerptLen int) Outcome {
	lowerURL := strings.ToLower(currentURL)
	lowerSrc := strings.ToLower(source)
	for _, k := range success {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.Contains(lowerURL, k) || strings.Contains(lowerSrc, k) {
			return Success()
		}
	}

	expr := FailureXPath(failure)
	if expr == "" {
		return Unknown()
	}
	doc, err := htmlquery.Parse(strings.NewReader(source))
	if err != nil {
		return ResultCheckError(err)
	}
	stripNonText(doc)
	matches, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return ResultCheckError(err)
	}
	if len(matches) == 0 {
		return Unknown()
	}
	return Rejected(excerpt(innermost(matches), excerptLen))
}

// stripNonText removes elements whose content is never rendered as text.
func stripNonText(doc *html.Node) {
	var drop []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				drop = append(drop, n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	for _, n := range drop {
		n.Parent.RemoveChild(n)
	}
}

// innermost returns the match with the shortest text, the first one on ties.
// Every ancestor of a matching node also matches, so this is the element
// closest to the message itself.
func innermost(nodes []*html.Node) string {
	best := ""
	for i, n := range nodes {
		text := strings.TrimSpace(htmlquery.InnerText(n))
		if i == 0 || len([]rune(text)) < len([]rune(best)) {
			best = text
		}
	}
	return best
}

func excerpt(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	return Truncate(text, n) + excerptSuffix
}
