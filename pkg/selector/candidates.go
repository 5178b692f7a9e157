// Package selector turns target references into ordered lists of driver
// selector candidates and resolves them against a live page. Candidates go
// from most to least specific; resolution tries each in turn and stops at
// the first that matches a live element and survives the requested
// interaction.
package selector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/entrhq/surf/pkg/dom"
)

// Kind labels where a candidate came from, for diagnostics.
type Kind string

const (
	KindID        Kind = "id"
	KindName      Kind = "name"
	KindTestID    Kind = "test-id"
	KindClass     Kind = "class"
	KindPath      Kind = "path"
	KindAttribute Kind = "attribute"
	KindTag       Kind = "tag"
	KindText      Kind = "text"
	KindTitle     Kind = "title"
	KindRole      Kind = "role"
	KindAltText   Kind = "alt-text"
)

// Candidate is one concrete way to ask the driver for an element.
type Candidate struct {
	Kind     Kind
	Selector string
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s(%s)", c.Kind, c.Selector)
}

// testIDAttributes are checked in order for a test-hook attribute.
var testIDAttributes = []string{"data-testid", "data-test-id", "data-test", "data-qa"}

// genericAttributes are excluded from the catch-all attribute candidates
// because they are either covered by earlier rungs or too unstable to match
// on.
var genericAttributes = map[string]bool{
	"id": true, "name": true, "class": true, "style": true,
	"data-testid": true, "data-test-id": true, "data-test": true, "data-qa": true,
}

var cssIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// ForElement builds the candidate ladder for a node known from the snapshot,
// most specific first: id, name, test id, first class token, structural
// path, remaining attributes in declaration order, bare tag name.
func ForElement(el *dom.ElementNode) []Candidate {
	var candidates []Candidate

	if id, ok := el.Attr("id"); ok && id != "" {
		candidates = append(candidates, Candidate{KindID, attrSelector("", "id", id)})
	}
	if name, ok := el.Attr("name"); ok && name != "" {
		candidates = append(candidates, Candidate{KindName, attrSelector(el.TagName, "name", name)})
	}
	for _, attr := range testIDAttributes {
		if v, ok := el.Attr(attr); ok && v != "" {
			candidates = append(candidates, Candidate{KindTestID, attrSelector("", attr, v)})
			break
		}
	}
	if class, ok := el.Attr("class"); ok {
		if token := firstClassToken(class); token != "" {
			candidates = append(candidates, Candidate{KindClass, el.TagName + "." + token})
		}
	}
	if el.StructuralPath != "" {
		candidates = append(candidates, Candidate{KindPath, "xpath=" + el.StructuralPath})
	}
	for _, attr := range el.Attributes {
		if attr.Value == "" || genericAttributes[attr.Name] || strings.HasPrefix(attr.Name, "on") {
			continue
		}
		candidates = append(candidates, Candidate{KindAttribute, attrSelector(el.TagName, attr.Name, attr.Value)})
	}
	if el.TagName != "" {
		candidates = append(candidates, Candidate{KindTag, el.TagName})
	}

	return candidates
}

// ForFreeText builds the fallback ladder for a target named by label rather
// than index: exact visible text, tooltip, ARIA role+name, alt text.
func ForFreeText(text string) []Candidate {
	quoted := quote(text)
	candidates := []Candidate{
		{KindText, "text=" + quoted},
		{KindTitle, fmt.Sprintf("[title=%s]", quoted)},
	}
	for _, role := range []string{"button", "link", "checkbox"} {
		candidates = append(candidates, Candidate{KindRole, fmt.Sprintf("role=%s[name=%s]", role, quoted)})
	}
	candidates = append(candidates, Candidate{KindAltText, fmt.Sprintf("[alt=%s]", quoted)})
	return candidates
}

func attrSelector(tag, name, value string) string {
	return fmt.Sprintf("%s[%s=%s]", tag, name, quote(value))
}

// firstClassToken returns the first class token usable as a CSS identifier.
func firstClassToken(class string) string {
	for _, token := range strings.Fields(class) {
		if cssIdentifier.MatchString(token) {
			return token
		}
	}
	return ""
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
