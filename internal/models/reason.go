package models

import "fmt"

// Reason is the employee's selection on the reason step
type Reason string

const (
	ReasonLost       Reason = "Lost"
	ReasonDamaged    Reason = "Damaged"
	ReasonNameChange Reason = "NameChange"
)

var reasonLabels = map[Reason]string{
	ReasonLost:       "Lost Card",
	ReasonDamaged:    "Card Damaged / Expired",
	ReasonNameChange: "Change of Name / Details",
}

// Reasons lists the selectable reasons in display order
func Reasons() []Reason {
	return []Reason{ReasonLost, ReasonDamaged, ReasonNameChange}
}

// ParseReason validates a raw selection value
func ParseReason(raw string) (Reason, error) {
	r := Reason(raw)
	if _, ok := reasonLabels[r]; !ok {
		return "", fmt.Errorf("invalid reason: %q", raw)
	}
	return r, nil
}

// Label returns the display text written into a record's type
func (r Reason) Label() string {
	if label, ok := reasonLabels[r]; ok {
		return label
	}
	return string(r)
}

// RequiresDocument reports whether a supporting document must be attached
func (r Reason) RequiresDocument() bool {
	return r == ReasonLost
}
