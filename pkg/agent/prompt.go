package agent

import (
	"fmt"
	"strings"

	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/dom"
)

// promptAttributes are the element attributes worth showing the model.
// Everything else is noise at prompt scale.
var promptAttributes = map[string]bool{
	"id":          true,
	"name":        true,
	"aria-label":  true,
	"placeholder": true,
	"title":       true,
	"role":        true,
	"type":        true,
	"value":       true,
	"alt":         true,
	"href":        true,
}

const maxTabTitleLen = 30

// BrowserState bundles everything the model needs to see about the page
// for one turn.
type BrowserState struct {
	Snapshot *dom.Snapshot
	Page     browser.PageState
	Tabs     []browser.TabInfo
}

// FormatBrowserState renders the page for the model: the tab list, scroll
// position, and one line per interactive element keyed by its highlight
// index. The element lines are the vocabulary the model's 对象 field draws
// from.
func FormatBrowserState(state BrowserState) string {
	var b strings.Builder

	for _, tab := range state.Tabs {
		if tab.Current {
			fmt.Fprintf(&b, "Current tab: %d\n", tab.Index)
			break
		}
	}

	b.WriteString("Available tabs:\n")
	for _, tab := range state.Tabs {
		title := tab.Title
		if len(title) > maxTabTitleLen {
			title = title[:maxTabTitleLen]
		}
		fmt.Fprintf(&b, "Tab %d: %s - %s\n", tab.Index, tab.URL, title)
	}

	b.WriteString(pageInfoLine(state.Page))
	b.WriteString("\nInteractive elements from top layer of the current page inside the viewport:\n")
	b.WriteString(elementsText(state))

	return b.String()
}

func pageInfoLine(p browser.PageState) string {
	var pagesAbove, pagesBelow, totalPages float64
	if p.ViewportHeight > 0 {
		pagesAbove = float64(p.PixelsAbove()) / float64(p.ViewportHeight)
		pagesBelow = float64(p.PixelsBelow()) / float64(p.ViewportHeight)
		totalPages = float64(p.PageHeight) / float64(p.ViewportHeight)
	}
	denom := p.PageHeight - p.ViewportHeight
	if denom < 1 {
		denom = 1
	}
	position := float64(p.ScrollY) / float64(denom) * 100

	return fmt.Sprintf(
		"Page info: %dx%dpx viewport, %dx%dpx total page size, %.1f pages above, %.1f pages below, %.1f total pages, at %.0f%% of page",
		p.ViewportWidth, p.ViewportHeight, p.PageWidth, p.PageHeight,
		pagesAbove, pagesBelow, totalPages, position,
	)
}

func elementsText(state BrowserState) string {
	lines := ElementLines(state.Snapshot)
	if len(lines) == 0 {
		return "empty page"
	}

	text := "[Start of page]\n" + strings.Join(lines, "\n")

	p := state.Page
	if above := p.PixelsAbove(); above > 0 && p.ViewportHeight > 0 {
		text = fmt.Sprintf("... %d pixels above (%.1f pages) ...\n",
			above, float64(above)/float64(p.ViewportHeight)) + text
	}
	if below := p.PixelsBelow(); below > 0 && p.ViewportHeight > 0 {
		text += fmt.Sprintf("\n... %d pixels below (%.1f pages) - scroll to see more ...",
			below, float64(below)/float64(p.ViewportHeight))
	}
	return text
}

// ElementLines renders one line per indexed element, in document order:
//
//	[8]<button id='go' >Search />
func ElementLines(snapshot *dom.Snapshot) []string {
	if snapshot == nil {
		return nil
	}

	var lines []string
	snapshot.Walk(func(n dom.Node) {
		el, ok := n.(*dom.ElementNode)
		if !ok || el.HighlightIdx == nil {
			return
		}
		lines = append(lines, elementLine(el))
	})
	return lines
}

func elementLine(el *dom.ElementNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d]<%s", el.HighlightIndex(), el.TagName)

	for _, attr := range el.Attributes {
		if promptAttributes[attr.Name] && attr.Value != "" {
			fmt.Fprintf(&b, " %s='%s'", attr.Name, attr.Value)
		}
	}
	if text := el.AllTextUntilNextInteractive(-1); text != "" {
		b.WriteString(" >" + text)
	}
	if el.Box != nil {
		fmt.Fprintf(&b, " [box:%d,%d %dx%d]",
			int(el.Box.X), int(el.Box.Y), int(el.Box.Width), int(el.Box.Height))
	}
	b.WriteString(" />")
	return b.String()
}
