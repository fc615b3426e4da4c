package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a new UUID for sessions and correlation IDs
func GenerateID() string {
	return uuid.New().String()
}

// GenerateSessionID generates a unique wizard or console session ID
func GenerateSessionID() string {
	return uuid.New().String()
}

// GenerateAuditID generates a unique status audit ID
func GenerateAuditID() string {
	return "AUDIT-" + uuid.New().String()
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// NextRequestID picks a request ID from the current time in milliseconds,
// bumping past the largest existing ID when two submissions land on the
// same millisecond.
func NextRequestID(nowMillis int64, existing []int64) int64 {
	id := nowMillis
	for _, e := range existing {
		if e >= id {
			id = e + 1
		}
	}
	return id
}
