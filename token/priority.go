package token

// PriorityClass is an ordered urgency class. Lower numeric rank means
// higher urgency; the class is the primary component of the ordering key.
type PriorityClass int

const (
	// PriorityCritical is served immediately, ahead of everything else.
	PriorityCritical PriorityClass = 1
	// PriorityHigh covers urgent medical attention.
	PriorityHigh PriorityClass = 2
	// PriorityMediumHigh covers serious but stable conditions.
	PriorityMediumHigh PriorityClass = 3
	// PriorityMediumLow covers regular consultations and is the default
	// for unknown categories.
	PriorityMediumLow PriorityClass = 4
	// PriorityReportPickup covers report collection.
	PriorityReportPickup PriorityClass = 5
	// PriorityConsultation covers report consultations.
	PriorityConsultation PriorityClass = 6
)

// Valid reports whether p is one of the fixed priority classes.
func (p PriorityClass) Valid() bool {
	return p >= PriorityCritical && p <= PriorityConsultation
}

// Prefix returns the ticket-number prefix for the class.
func (p PriorityClass) Prefix() string {
	switch p {
	case PriorityCritical:
		return "E"
	case PriorityHigh:
		return "H"
	case PriorityMediumHigh:
		return "MH"
	case PriorityMediumLow:
		return "ML"
	case PriorityReportPickup:
		return "R"
	case PriorityConsultation:
		return "C"
	default:
		return "X"
	}
}

// String returns a human-readable class name.
func (p PriorityClass) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMediumHigh:
		return "medium_high"
	case PriorityMediumLow:
		return "medium_low"
	case PriorityReportPickup:
		return "report_pickup"
	case PriorityConsultation:
		return "consultation"
	default:
		return "unknown"
	}
}

// BaseMinutes returns the fixed base service time for the class, in
// minutes per queued token. The engine's estimator may override these
// through configuration.
func (p PriorityClass) BaseMinutes() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 5
	case PriorityMediumHigh:
		return 15
	case PriorityMediumLow:
		return 20
	case PriorityReportPickup:
		return 5
	case PriorityConsultation:
		return 10
	default:
		return 20
	}
}

// ClassForCategory maps a request category to its priority class.
// Unknown categories map to PriorityMediumLow rather than failing, so a
// misspelled category still admits, just without elevated urgency.
func ClassForCategory(category string) PriorityClass {
	switch category {
	case "emergency":
		return PriorityCritical
	case "urgent_medical":
		return PriorityHigh
	case "serious_condition":
		return PriorityMediumHigh
	case "regular_consultation":
		return PriorityMediumLow
	case "report_pickup":
		return PriorityReportPickup
	case "report_consultation":
		return PriorityConsultation
	default:
		return PriorityMediumLow
	}
}
