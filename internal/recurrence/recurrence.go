// Package recurrence expands RRULE recurrence rules into concrete future
// occurrence start times. Expansion is pure computation: same inputs always
// produce the same ordered list.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrInvalidRule is returned when the rule text cannot be parsed. Callers
// treat this as a local, non-fatal condition: the event is still created,
// expansion is simply skipped.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// DefaultMaxOccurrences caps expansion when neither a count nor an end date
// bound is given. Roughly one year of weekly cadence.
const DefaultMaxOccurrences = 52

// Bounds limits how far a rule is expanded. When both are set, whichever
// triggers first stops the expansion.
type Bounds struct {
	// Count is the maximum number of occurrences to enumerate. Zero or
	// negative means unset, in which case DefaultMaxOccurrences applies.
	Count int

	// Until is an inclusive end date; occurrences after it are dropped.
	Until *time.Time
}

// Expand enumerates the occurrence start times of rule anchored at start,
// bounded by b, and returns only those strictly after now. The result is
// strictly increasing and deduplicated.
func Expand(start time.Time, rule string, b Bounds, now time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	r.DTStart(start)

	max := b.Count
	if max <= 0 {
		max = DefaultMaxOccurrences
	}

	var out []time.Time
	next := r.Iterator()
	for seen := 0; seen < max; seen++ {
		occ, ok := next()
		if !ok {
			break
		}
		if b.Until != nil && occ.After(*b.Until) {
			break
		}
		if !occ.After(now) {
			continue
		}
		if len(out) > 0 && !occ.After(out[len(out)-1]) {
			continue
		}
		out = append(out, occ)
	}
	return out, nil
}
