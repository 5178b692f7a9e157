package dom

import (
	"errors"
	"fmt"
	"hash/fnv"
)

// ErrInvalidSnapshot reports a structural dump whose declared root is absent
// or is not an element node.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Build converts a raw structural dump into a snapshot: a typed tree plus
// the highlight-index map of interactive elements.
//
// The build runs in two passes. The first instantiates every node
// independently; the second wires parent/child references from the declared
// child id lists. Child ids that reference no known node are skipped, a
// dangling reference is not fatal. Structural paths and synthetic highlight
// indices are assigned after wiring, in document order, so repeated builds
// of the same dump agree.
func Build(raw *RawSnapshot) (*Snapshot, error) {
	if raw == nil || len(raw.Map) == 0 {
		return nil, fmt.Errorf("%w: empty node map", ErrInvalidSnapshot)
	}

	// First pass: instantiate nodes.
	nodes := make(map[NodeID]Node, len(raw.Map))
	for id, rec := range raw.Map {
		nodes[NodeID(id)] = newNode(rec)
	}

	// Second pass: wire hierarchy.
	for id, rec := range raw.Map {
		parent, ok := nodes[NodeID(id)].(*ElementNode)
		if !ok {
			continue
		}
		for _, childID := range rec.Children {
			child, ok := nodes[childID]
			if !ok {
				continue // dangling reference
			}
			child.setParent(parent)
			parent.Children = append(parent.Children, child)
		}
	}

	rootNode, ok := nodes[raw.RootID]
	if !ok {
		return nil, fmt.Errorf("%w: root id %q not present in node map", ErrInvalidSnapshot, raw.RootID)
	}
	root, ok := rootNode.(*ElementNode)
	if !ok {
		return nil, fmt.Errorf("%w: root id %q is not an element", ErrInvalidSnapshot, raw.RootID)
	}

	snapshot := &Snapshot{Root: root, IndexMap: make(map[int]*ElementNode)}
	assignPaths(root, "")
	indexElements(snapshot)
	return snapshot, nil
}

// BuildFromJSON decodes the wire form and builds the snapshot in one step.
func BuildFromJSON(data []byte) (*Snapshot, error) {
	raw, err := DecodeRawSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return Build(raw)
}

func newNode(rec RawNode) Node {
	if rec.Type == textNodeType {
		return &TextNode{Text: rec.Text}
	}
	return &ElementNode{
		TagName:      rec.TagName,
		Attributes:   []Attribute(rec.Attributes),
		Visible:      rec.IsVisible,
		Box:          rec.BoundingBox,
		Interactive:  rec.IsInteractive,
		TopLayer:     rec.IsTopElement,
		HighlightIdx: copyIndex(rec.HighlightIndex),
	}
}

func copyIndex(idx *int) *int {
	if idx == nil {
		return nil
	}
	v := *idx
	return &v
}

// assignPaths records every element's tag-indexed positional path from the
// root, e.g. /html[1]/body[1]/div[2].
func assignPaths(el *ElementNode, parentPath string) {
	position := 1
	if p := el.Parent(); p != nil {
		for _, sibling := range p.Children {
			sib, ok := sibling.(*ElementNode)
			if !ok {
				continue
			}
			if sib == el {
				break
			}
			if sib.TagName == el.TagName {
				position++
			}
		}
	}
	el.StructuralPath = fmt.Sprintf("%s/%s[%d]", parentPath, el.TagName, position)

	for _, child := range el.Children {
		if c, ok := child.(*ElementNode); ok {
			assignPaths(c, el.StructuralPath)
		}
	}
}

// indexElements populates the highlight-index map. Explicit indices from the
// dump win; interactive elements that declare none get a deterministic
// synthetic index hashed from their structural path. A synthetic index never
// displaces an existing entry: on collision the hash is re-salted until a
// free slot is found, in document order, so the assignment is stable across
// builds of the same dump.
func indexElements(s *Snapshot) {
	var synthetic []*ElementNode

	s.Walk(func(n Node) {
		el, ok := n.(*ElementNode)
		if !ok {
			return
		}
		if el.HighlightIdx != nil {
			if _, taken := s.IndexMap[*el.HighlightIdx]; !taken {
				s.IndexMap[*el.HighlightIdx] = el
			}
			return
		}
		if el.Interactive {
			synthetic = append(synthetic, el)
		}
	})

	for _, el := range synthetic {
		idx := syntheticIndex(el.StructuralPath, s.IndexMap)
		el.HighlightIdx = &idx
		s.IndexMap[idx] = el
	}
}

// syntheticIndex derives a positive 63-bit index from the structural path,
// probing with a salt on collision.
func syntheticIndex(path string, taken map[int]*ElementNode) int {
	for salt := 0; ; salt++ {
		h := fnv.New64a()
		h.Write([]byte(path))
		if salt > 0 {
			fmt.Fprintf(h, "#%d", salt)
		}
		idx := int(h.Sum64() & 0x7fffffffffffffff)
		if _, used := taken[idx]; !used {
			return idx
		}
	}
}
