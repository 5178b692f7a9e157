// Package dom builds typed DOM snapshots from the structural dump emitted
// by the in-page analysis script. A snapshot is one immutable reading of a
// page: a rooted tree of element and text nodes plus an index of the
// interactive elements, keyed by their highlight index.
package dom

import (
	"fmt"
	"sort"
	"strings"
)

// Node is a single node in the snapshot tree, either an *ElementNode or a
// *TextNode.
type Node interface {
	// Parent returns the owning element, or nil for the root.
	Parent() *ElementNode

	setParent(p *ElementNode)
}

// BoundingBox is the axis-aligned box of an element in page coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Attribute is one declared attribute. Order of declaration is preserved
// because the selector resolver consumes attributes in that order.
type Attribute struct {
	Name  string
	Value string
}

// ElementNode is an element in the snapshot tree.
type ElementNode struct {
	TagName       string
	Attributes    []Attribute
	Visible       bool
	Box           *BoundingBox
	Interactive   bool
	TopLayer      bool
	HighlightIdx  *int
	StructuralPath string

	Children []Node
	parent   *ElementNode
}

// TextNode is a run of trimmed text.
type TextNode struct {
	Text   string
	parent *ElementNode
}

func (n *ElementNode) Parent() *ElementNode  { return n.parent }
func (n *ElementNode) setParent(p *ElementNode) { n.parent = p }
func (n *TextNode) Parent() *ElementNode     { return n.parent }
func (n *TextNode) setParent(p *ElementNode) { n.parent = p }

// Attr returns the value of the named attribute and whether it was declared.
func (n *ElementNode) Attr(name string) (string, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HighlightIndex returns the node's highlight index, or -1 when it has none.
func (n *ElementNode) HighlightIndex() int {
	if n.HighlightIdx == nil {
		return -1
	}
	return *n.HighlightIdx
}

func (n *ElementNode) String() string {
	return fmt.Sprintf("<%s children=%d path=%s>", n.TagName, len(n.Children), n.StructuralPath)
}

// AllTextUntilNextInteractive aggregates the text of this element's subtree,
// stopping at descendants that carry their own highlight index so each
// indexed element reports only the text it exclusively controls.
// maxDepth of -1 means unbounded.
func (n *ElementNode) AllTextUntilNextInteractive(maxDepth int) string {
	var parts []string

	var collect func(node Node, depth int)
	collect = func(node Node, depth int) {
		if maxDepth != -1 && depth > maxDepth {
			return
		}
		switch v := node.(type) {
		case *TextNode:
			if t := strings.TrimSpace(v.Text); t != "" {
				parts = append(parts, t)
			}
		case *ElementNode:
			if v != n && v.HighlightIdx != nil {
				return
			}
			for _, child := range v.Children {
				collect(child, depth+1)
			}
		}
	}

	collect(n, 0)
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// Snapshot is one structural reading of a page. It owns the tree root and the
// highlight-index map. A snapshot is invalidated by any navigation, tab
// switch, or mutating action; callers rebuild before resolving further
// targets.
type Snapshot struct {
	Root     *ElementNode
	IndexMap map[int]*ElementNode
}

// Element returns the indexed element for a highlight index.
func (s *Snapshot) Element(highlightIndex int) (*ElementNode, bool) {
	el, ok := s.IndexMap[highlightIndex]
	return el, ok
}

// InteractiveElements returns the indexed elements sorted by highlight index.
func (s *Snapshot) InteractiveElements() []*ElementNode {
	indices := make([]int, 0, len(s.IndexMap))
	for idx := range s.IndexMap {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	elements := make([]*ElementNode, 0, len(indices))
	for _, idx := range indices {
		elements = append(elements, s.IndexMap[idx])
	}
	return elements
}

// Walk visits every node reachable from the root in document order.
func (s *Snapshot) Walk(visit func(Node)) {
	var walk func(Node)
	walk = func(n Node) {
		visit(n)
		if el, ok := n.(*ElementNode); ok {
			for _, child := range el.Children {
				walk(child)
			}
		}
	}
	if s.Root != nil {
		walk(s.Root)
	}
}
