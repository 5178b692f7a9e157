// Package domscript embeds the in-page analysis script that produces the
// structural dump consumed by the snapshot builder. The script is evaluated
// as a function of one options argument and returns `{map, rootId}`.
package domscript

import _ "embed"

//go:embed snapshot.js
var Source string

// Args are the options passed to the script.
type Args struct {
	// DoHighlightElements draws numbered overlays on indexed elements, for
	// debugging against a headed browser.
	DoHighlightElements bool `json:"doHighlightElements"`

	// ViewportExpansion widens, in pixels, the region treated as visible.
	ViewportExpansion int `json:"viewportExpansion"`
}

// DefaultArgs returns the production options: no overlays, no expansion.
func DefaultArgs() Args {
	return Args{}
}
