package models

import "fmt"

// Option tags riders can attach to a booking. The vocabulary is closed so
// the matching filter stays exhaustively testable.
const (
	OptWheelchair = "wheelchair"
	OptAssistance = "assistance"
	OptLeft       = "left"
	OptRight      = "right"
	OptEither     = "either"
)

var knownOptions = map[string]bool{
	OptWheelchair: true,
	OptAssistance: true,
	OptLeft:       true,
	OptRight:      true,
	OptEither:     true,
}

// ValidateOptions rejects any tag outside the closed vocabulary.
func ValidateOptions(opts []string) error {
	for _, o := range opts {
		if !knownOptions[o] {
			return fmt.Errorf("unknown accessibility option %q", o)
		}
	}
	return nil
}

// NormalizeOptions folds a tag list into the structured request stored on
// the ride. The first entry-side tag wins; absent any, the side defaults to
// "either".
func NormalizeOptions(opts []string) AccessibilityRequest {
	req := AccessibilityRequest{EntrySide: EntryEither}
	sideSet := false
	for _, o := range opts {
		switch o {
		case OptWheelchair:
			req.Wheelchair = true
		case OptAssistance:
			req.Assistance = true
		case OptLeft, OptRight, OptEither:
			if !sideSet {
				req.EntrySide = EntrySide(o)
				sideSet = true
			}
		}
	}
	return req
}
