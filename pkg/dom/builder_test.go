package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFixture returns a small form-like page dump:
// html > body > (div > input[8], button "Submit", text)
func buildFixture() *RawSnapshot {
	idx := 8
	return &RawSnapshot{
		RootID: "0",
		Map: map[string]RawNode{
			"0": {TagName: "html", Children: []NodeID{"1"}},
			"1": {TagName: "body", Children: []NodeID{"2", "4", "5"}},
			"2": {TagName: "div", Children: []NodeID{"3"}},
			"3": {
				TagName:        "input",
				Attributes:     orderedAttrs{{Name: "id", Value: "q"}, {Name: "type", Value: "text"}},
				IsVisible:      true,
				IsInteractive:  true,
				HighlightIndex: &idx,
			},
			"4": {
				TagName:       "button",
				IsVisible:     true,
				IsInteractive: true,
				Children:      []NodeID{"6"},
			},
			"5": {Type: textNodeType, Text: "  trailing text  "},
			"6": {Type: textNodeType, Text: "Submit"},
		},
	}
}

func TestBuildWiresDeclaredHierarchy(t *testing.T) {
	snapshot, err := Build(buildFixture())
	require.NoError(t, err)

	var elements, texts int
	snapshot.Walk(func(n Node) {
		switch n.(type) {
		case *ElementNode:
			elements++
		case *TextNode:
			texts++
		}
	})
	assert.Equal(t, 5, elements)
	assert.Equal(t, 2, texts)

	// Every child's parent link matches the declared hierarchy.
	snapshot.Walk(func(n Node) {
		el, ok := n.(*ElementNode)
		if !ok {
			return
		}
		for _, child := range el.Children {
			assert.Same(t, el, child.Parent())
		}
	})

	assert.Nil(t, snapshot.Root.Parent())
	assert.Equal(t, "/html[1]", snapshot.Root.StructuralPath)
}

func TestBuildSkipsDanglingChildReferences(t *testing.T) {
	raw := buildFixture()
	rec := raw.Map["2"]
	rec.Children = append(rec.Children, "999")
	raw.Map["2"] = rec

	snapshot, err := Build(raw)
	require.NoError(t, err)

	div := snapshot.Root.Children[0].(*ElementNode).Children[0].(*ElementNode)
	assert.Equal(t, "div", div.TagName)
	assert.Len(t, div.Children, 1)
}

func TestBuildUsesExplicitHighlightIndexVerbatim(t *testing.T) {
	snapshot, err := Build(buildFixture())
	require.NoError(t, err)

	input, ok := snapshot.Element(8)
	require.True(t, ok)
	assert.Equal(t, "input", input.TagName)
	assert.Equal(t, 8, input.HighlightIndex())
}

func TestBuildSynthesizesDeterministicIndices(t *testing.T) {
	first, err := Build(buildFixture())
	require.NoError(t, err)
	second, err := Build(buildFixture())
	require.NoError(t, err)

	// The button declared no index but is interactive, so it must appear in
	// the index map under a synthesized index identical across builds.
	findButton := func(s *Snapshot) *ElementNode {
		for _, el := range s.InteractiveElements() {
			if el.TagName == "button" {
				return el
			}
		}
		return nil
	}

	b1 := findButton(first)
	b2 := findButton(second)
	require.NotNil(t, b1)
	require.NotNil(t, b2)
	assert.Equal(t, b1.HighlightIndex(), b2.HighlightIndex())
	assert.NotEqual(t, -1, b1.HighlightIndex())
}

func TestBuildRejectsMissingRoot(t *testing.T) {
	raw := buildFixture()
	raw.RootID = "42"

	_, err := Build(raw)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestBuildRejectsTextRoot(t *testing.T) {
	raw := buildFixture()
	raw.RootID = "5"

	_, err := Build(raw)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestAllTextUntilNextInteractive(t *testing.T) {
	snapshot, err := Build(buildFixture())
	require.NoError(t, err)

	button := snapshot.Root.Children[0].(*ElementNode).Children[1].(*ElementNode)
	require.Equal(t, "button", button.TagName)
	assert.Equal(t, "Submit", button.AllTextUntilNextInteractive(-1))

	// The body's aggregate stops at indexed descendants: the input carries
	// index 8 and the button gets a synthetic one, so only loose text remains.
	body := snapshot.Root.Children[0].(*ElementNode)
	assert.Equal(t, "trailing text", body.AllTextUntilNextInteractive(-1))
}

func TestDecodeRawSnapshotWireForm(t *testing.T) {
	payload := []byte(`{
		"rootId": 0,
		"map": {
			"0": {"tagName": "html", "children": [1, "2"]},
			"1": {"tagName": "a", "attributes": {"href": "/x", "class": "nav first", "tabindex": 3}, "isInteractive": true},
			"2": {"type": "TEXT_NODE", "text": "hello"}
		}
	}`)

	raw, err := DecodeRawSnapshot(payload)
	require.NoError(t, err)
	assert.Equal(t, NodeID("0"), raw.RootID)

	anchor := raw.Map["1"]
	require.Len(t, anchor.Attributes, 3)
	// Declaration order is preserved and non-string values are stringified.
	assert.Equal(t, Attribute{Name: "href", Value: "/x"}, anchor.Attributes[0])
	assert.Equal(t, Attribute{Name: "class", Value: "nav first"}, anchor.Attributes[1])
	assert.Equal(t, Attribute{Name: "tabindex", Value: "3"}, anchor.Attributes[2])

	snapshot, err := Build(raw)
	require.NoError(t, err)
	assert.Len(t, snapshot.Root.Children, 2)
}

func TestBuildFromJSONRejectsMalformedPayload(t *testing.T) {
	_, err := BuildFromJSON([]byte(`{"rootId": `))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}
