package enums

import "fmt"

// SyncStatus reports the outcome of the last ingredient to product sync.
type SyncStatus string

const (
	SyncStatusSynced SyncStatus = "synced"
	SyncStatusError  SyncStatus = "error"
)

var validSyncStatuses = []SyncStatus{SyncStatusSynced, SyncStatusError}

// String implements fmt.Stringer.
func (s SyncStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SyncStatus.
func (s SyncStatus) IsValid() bool {
	for _, candidate := range validSyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncStatus converts raw input into a SyncStatus.
func ParseSyncStatus(value string) (SyncStatus, error) {
	for _, candidate := range validSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync status %q", value)
}
