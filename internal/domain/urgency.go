package domain

import "strconv"

// UrgencyLevel ranks how quickly a ticket needs attention, 1 (low) to 5 (critical).
type UrgencyLevel int

const (
	UrgencyLow      UrgencyLevel = 1
	UrgencyMedium   UrgencyLevel = 2
	UrgencyHigh     UrgencyLevel = 3
	UrgencyUrgent   UrgencyLevel = 4
	UrgencyCritical UrgencyLevel = 5

	DefaultUrgency = UrgencyLow
)

// UrgencyLevels lists levels in display order.
var UrgencyLevels = []UrgencyLevel{
	UrgencyLow,
	UrgencyMedium,
	UrgencyHigh,
	UrgencyUrgent,
	UrgencyCritical,
}

// Valid reports whether u lies in [1,5].
func (u UrgencyLevel) Valid() bool {
	return u >= UrgencyLow && u <= UrgencyCritical
}

// Label is the human name of the level.
func (u UrgencyLevel) Label() string {
	switch u {
	case UrgencyLow:
		return "Low"
	case UrgencyMedium:
		return "Medium"
	case UrgencyHigh:
		return "High"
	case UrgencyUrgent:
		return "Urgent"
	case UrgencyCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Color is the badge colour used when listing tickets.
func (u UrgencyLevel) Color() string {
	switch u {
	case UrgencyLow:
		return "#22c55e"
	case UrgencyMedium:
		return "#eab308"
	case UrgencyHigh:
		return "#f97316"
	case UrgencyUrgent:
		return "#ef4444"
	case UrgencyCritical:
		return "#dc2626"
	default:
		return "#64748b"
	}
}

// CSSClass is the stylesheet class for the level. Urgent and critical share one.
func (u UrgencyLevel) CSSClass() string {
	switch u {
	case UrgencyLow:
		return "urgency-low"
	case UrgencyMedium:
		return "urgency-medium"
	case UrgencyHigh:
		return "urgency-high"
	case UrgencyUrgent, UrgencyCritical:
		return "urgency-critical"
	default:
		return ""
	}
}

func (u UrgencyLevel) String() string {
	return strconv.Itoa(int(u))
}
