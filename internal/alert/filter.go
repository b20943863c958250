// Package alert evaluates accepted posts against the trigger/ignore
// patterns and dispatches notifications.
package alert

import (
	"fmt"
	"regexp"
)

// Filter holds the compiled trigger and ignore patterns. Both are
// case-insensitive substring searches, not full matches.
type Filter struct {
	trigger *regexp.Regexp
	ignore  *regexp.Regexp // nil means nothing is ignored
}

// NewFilter compiles the patterns. An empty ignore pattern matches
// nothing; an empty trigger pattern is rejected (use ".*" to trigger on
// everything, which is the configured default).
func NewFilter(trigger, ignore string) (*Filter, error) {
	if trigger == "" {
		return nil, fmt.Errorf("trigger pattern must not be empty")
	}
	trig, err := regexp.Compile("(?i)" + trigger)
	if err != nil {
		return nil, fmt.Errorf("invalid trigger pattern: %w", err)
	}

	f := &Filter{trigger: trig}
	if ignore != "" {
		ign, err := regexp.Compile("(?i)" + ignore)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern: %w", err)
		}
		f.ignore = ign
	}
	return f, nil
}

// ShouldAlert returns true iff text does NOT match the ignore pattern and
// DOES match the trigger pattern.
func (f *Filter) ShouldAlert(text string) bool {
	if f.ignore != nil && f.ignore.MatchString(text) {
		return false
	}
	return f.trigger.MatchString(text)
}
