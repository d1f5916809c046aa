// Package sanitize strips markup from user-supplied free text before it is
// stored. Device descriptions and hazard narratives are rendered verbatim in
// the frontend, so nothing HTML-shaped may survive.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans free-text fields.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New returns a sanitizer with the strict policy: all tags removed.
func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean strips markup and surrounding whitespace from the input.
func (s *Sanitizer) Clean(input string) string {
	return strings.TrimSpace(s.policy.Sanitize(input))
}

// CleanAll applies Clean to each target in place, skipping nil pointers.
func (s *Sanitizer) CleanAll(targets ...*string) {
	for _, target := range targets {
		if target != nil {
			*target = s.Clean(*target)
		}
	}
}
