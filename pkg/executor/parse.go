package executor

import (
	"fmt"
	"regexp"
	"strings"
)

// The model replies with operations in bracket form, using full-width
// delimiters:
//
//	[操作：click，对象：8，内容：]
//
// The 操作 field is mandatory; 对象 and 内容 may be absent or empty. The
// content field is matched greedily so option labels and typed text may
// themselves contain full-width commas.
var (
	operationRe = regexp.MustCompile(`\[操作：(.*?)(?:，对象：(.*?))?(?:，内容：(.*?))?\]`)
	bracketRe   = regexp.MustCompile(`\[[^\[\]]*\]`)
)

// ParseOperation decodes a single bracketed operation string.
func ParseOperation(raw string) (ActionDescriptor, error) {
	trimmed := strings.TrimSpace(raw)

	m := operationRe.FindStringSubmatch(trimmed)
	if m == nil {
		if strings.Contains(trimmed, "[") {
			return ActionDescriptor{}, fmt.Errorf("%w: missing 操作 field in %q", ErrParse, trimmed)
		}
		return ActionDescriptor{}, fmt.Errorf("%w: not a bracketed operation: %q", ErrParse, trimmed)
	}

	desc := ActionDescriptor{
		Action:  Action(strings.TrimSpace(m[1])),
		Target:  strings.TrimSpace(m[2]),
		Content: strings.TrimSpace(m[3]),
	}
	if desc.Action == "" {
		return ActionDescriptor{}, fmt.Errorf("%w: empty 操作 field in %q", ErrParse, trimmed)
	}
	if !knownActions[desc.Action] {
		return ActionDescriptor{}, fmt.Errorf("%w: unknown action %q", ErrParse, desc.Action)
	}
	return desc, nil
}

// ParseOperations extracts every bracketed operation from a model reply,
// in order. Surrounding prose is ignored. A reply containing brackets but
// no well-formed operation is an error; a reply with no brackets at all
// yields an empty slice.
func ParseOperations(reply string) ([]ActionDescriptor, error) {
	groups := bracketRe.FindAllString(reply, -1)

	var ops []ActionDescriptor
	for _, g := range groups {
		if !strings.Contains(g, "操作：") {
			// Bracketed text that is not an operation, e.g. a citation.
			continue
		}
		desc, err := ParseOperation(g)
		if err != nil {
			return nil, err
		}
		ops = append(ops, desc)
	}
	return ops, nil
}
