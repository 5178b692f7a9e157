package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// PageOutline is a coarse textual inventory of a page, used as the model
// summary when the structural dump cannot run (script blocked, exotic
// document). It groups actionable elements by kind rather than by index.
type PageOutline struct {
	Title       string
	Description string
	Buttons     []string
	Links       []string
	Inputs      []string
	Images      []string
}

// skippedElements carry no useful summary content.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"svg": true, "iframe": true, "template": true,
}

// Outline parses raw HTML and inventories its actionable elements.
func Outline(rawHTML string) (*PageOutline, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	outline := &PageOutline{}
	collectOutline(doc, outline)
	return outline, nil
}

func collectOutline(n *html.Node, out *PageOutline) {
	if n.Type == html.ElementNode {
		tag := strings.ToLower(n.Data)
		if skippedElements[tag] {
			return
		}
		switch tag {
		case "title":
			out.Title = nodeText(n)
		case "meta":
			if attr(n, "name") == "description" {
				out.Description = attr(n, "content")
			}
		case "button":
			out.Buttons = append(out.Buttons, firstNonEmpty(nodeText(n), attr(n, "value"), attr(n, "aria-label")))
		case "a":
			out.Links = append(out.Links, firstNonEmpty(nodeText(n), attr(n, "href")))
		case "input":
			switch attr(n, "type") {
			case "button", "submit":
				out.Buttons = append(out.Buttons, firstNonEmpty(attr(n, "value"), attr(n, "name")))
			default:
				out.Inputs = append(out.Inputs, firstNonEmpty(attr(n, "name"), attr(n, "id"), attr(n, "placeholder")))
			}
		case "textarea", "select":
			out.Inputs = append(out.Inputs, firstNonEmpty(attr(n, "name"), attr(n, "id"), tag))
		case "img":
			if alt := attr(n, "alt"); alt != "" {
				out.Images = append(out.Images, alt)
			}
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectOutline(child, out)
	}
}

// String renders the outline in the compact form fed to the model.
func (o *PageOutline) String() string {
	var b strings.Builder
	if o.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", o.Title)
	}
	if o.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", o.Description)
	}
	writeGroup(&b, "Buttons", o.Buttons)
	writeGroup(&b, "Links", o.Links)
	writeGroup(&b, "Inputs", o.Inputs)
	writeGroup(&b, "Images", o.Images)
	return strings.TrimRight(b.String(), "\n")
}

func writeGroup(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", label, len(items))
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func nodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return "(unnamed)"
}
