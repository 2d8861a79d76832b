package enums

// AvailabilityStatus is the stock ladder shared by ingredients and products.
type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "available"
	AvailabilityLow       AvailabilityStatus = "low"
	AvailabilityCritical  AvailabilityStatus = "critical"
	AvailabilityOut       AvailabilityStatus = "out"
)

func (s AvailabilityStatus) String() string {
	return string(s)
}

// Severity orders the ladder from available (0) to out (3).
func (s AvailabilityStatus) Severity() int {
	switch s {
	case AvailabilityLow:
		return 1
	case AvailabilityCritical:
		return 2
	case AvailabilityOut:
		return 3
	default:
		return 0
	}
}

// Worse returns the more severe of two statuses.
func (s AvailabilityStatus) Worse(other AvailabilityStatus) AvailabilityStatus {
	if other.Severity() > s.Severity() {
		return other
	}
	return s
}
