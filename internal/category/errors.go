package category

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownSection  = errors.New("unknown section")
)

// ValidationError collects every problem found in a submitted form.
type ValidationError struct {
	Missing []string          `json:"missing,omitempty"`
	Invalid map[string]string `json:"invalid,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "required fields missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		invalid := make([]string, 0, len(e.Invalid))
		for _, label := range sortedKeys(e.Invalid) {
			invalid = append(invalid, fmt.Sprintf("%s %s", label, e.Invalid[label]))
		}
		parts = append(parts, "invalid fields: "+strings.Join(invalid, "; "))
	}
	return strings.Join(parts, "; ")
}

// HasErrors reports whether anything was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Invalid) > 0
}

func (e *ValidationError) addInvalid(label, msg string) {
	if e.Invalid == nil {
		e.Invalid = make(map[string]string)
	}
	e.Invalid[label] = msg
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
