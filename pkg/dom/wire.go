package dom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RawSnapshot is the wire form emitted by the in-page analysis script:
// a node-id keyed map plus the designated root id.
type RawSnapshot struct {
	Map    map[string]RawNode `json:"map"`
	RootID NodeID             `json:"rootId"`
}

// RawNode is one node record in the wire form. Unknown fields are ignored.
type RawNode struct {
	Type           string       `json:"type"`
	TagName        string       `json:"tagName"`
	Text           string       `json:"text"`
	Attributes     orderedAttrs `json:"attributes"`
	IsVisible      bool         `json:"isVisible"`
	BoundingBox    *BoundingBox `json:"boundingBox"`
	IsTopElement   bool         `json:"isTopElement"`
	IsInteractive  bool         `json:"isInteractive"`
	HighlightIndex *int         `json:"highlightIndex"`
	Children       []NodeID     `json:"children"`
}

// textNodeType marks a text record in the wire form.
const textNodeType = "TEXT_NODE"

// NodeID accepts both string and numeric ids, since the page script emits
// whichever the engine's map keys happened to be.
type NodeID string

// UnmarshalJSON decodes a string or number into the id.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty node id")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NodeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("node id must be a string or number: %w", err)
	}
	*id = NodeID(n.String())
	return nil
}

// orderedAttrs preserves attribute declaration order, which the selector
// resolver depends on. encoding/json map decoding would lose it.
type orderedAttrs []Attribute

// UnmarshalJSON walks the object token stream so attribute order survives.
func (a *orderedAttrs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*a = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("attributes must be an object, got %v", tok)
	}

	var attrs []Attribute
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("attribute name must be a string, got %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		attrs = append(attrs, Attribute{Name: key, Value: rawToString(value)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*a = attrs
	return nil
}

// rawToString renders an attribute value as a plain string. Pages sometimes
// emit non-string values (numbers, booleans) for attributes like tabindex.
func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return string(raw)
}

// DecodeRawSnapshot parses the JSON wire form of a structural dump.
func DecodeRawSnapshot(data []byte) (*RawSnapshot, error) {
	var raw RawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed snapshot payload: %w", err)
	}
	return &raw, nil
}
