package models

import (
	"strings"
	"unicode"
)

// Status is the lifecycle label of a reissuance request. The set is open:
// any non-empty label is accepted, the constants below are the ones the
// wizard and the admin console know about.
type Status string

const (
	StatusPending             Status = "Pending"
	StatusCompleted           Status = "Completed"
	StatusApproved            Status = "Approved"
	StatusPrinted             Status = "Printed"
	StatusRejected            Status = "Rejected"
	StatusWaitingForHRApprove Status = "Waiting for HR Approval"
)

var knownStatusClasses = map[Status]string{
	StatusPending:             "pending",
	StatusCompleted:           "completed",
	StatusApproved:            "approved",
	StatusPrinted:             "printed",
	StatusRejected:            "rejected",
	StatusWaitingForHRApprove: "waiting",
}

// KnownStatuses returns the labels the console offers by default
func KnownStatuses() []Status {
	return []Status{
		StatusWaitingForHRApprove,
		StatusPending,
		StatusApproved,
		StatusPrinted,
		StatusCompleted,
		StatusRejected,
	}
}

// DisplayClass derives the badge styling tag from the status. It is the only
// place a status is turned into a class.
func (s Status) DisplayClass() string {
	if class, ok := knownStatusClasses[s]; ok {
		return class
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(string(s))) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// IsPending reports whether the status counts towards the pending total
func (s Status) IsPending() bool {
	return s == StatusPending
}

// IsCompleted reports whether the status counts towards the completed total
func (s Status) IsCompleted() bool {
	return s == StatusApproved || s == StatusPrinted
}

// String implements fmt.Stringer
func (s Status) String() string {
	return string(s)
}
