// Package guardrails implements the input and output checks that wrap every
// agent run. A tripped guardrail aborts the run with a *TripwireError.
package guardrails

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Guardrail names reported in TripwireError and metrics.
const (
	SafetyGate = "safety_gate"
	OutputGate = "output_gate"
)

// MaxOutputLength is the longest final output, in characters, that passes the
// output gate.
const MaxOutputLength = 5000

// BannedPhrases trip the input gate when found in the lower-cased input.
var BannedPhrases = []string{
	"delete repo",
	"share password",
	"drop database",
	"wipe data",
}

// TripwireError reports which guardrail stopped a run and why.
type TripwireError struct {
	Guardrail string
	Reason    string
}

func (e *TripwireError) Error() string {
	return fmt.Sprintf("guardrail %s tripped: %s", e.Guardrail, e.Reason)
}

// IsTripwire reports whether err, or anything it wraps, is a *TripwireError.
func IsTripwire(err error) bool {
	var te *TripwireError
	return errors.As(err, &te)
}

// CheckInput trips on requests for destructive operations or credential
// sharing.
func CheckInput(text string) error {
	lower := strings.ToLower(text)
	for _, phrase := range BannedPhrases {
		if strings.Contains(lower, phrase) {
			return &TripwireError{
				Guardrail: SafetyGate,
				Reason:    fmt.Sprintf("banned phrase %q", phrase),
			}
		}
	}
	return nil
}

// CheckOutput trips on an empty or overlong final output.
func CheckOutput(text string) error {
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		return &TripwireError{Guardrail: OutputGate, Reason: "empty output"}
	case n > MaxOutputLength:
		return &TripwireError{
			Guardrail: OutputGate,
			Reason:    fmt.Sprintf("output has %d characters, max %d", n, MaxOutputLength),
		}
	}
	return nil
}
