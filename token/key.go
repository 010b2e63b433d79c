package token

// OrderingKey is the (priority class, admission sequence) pair that fixes
// a token's position in the total queue order. Keys never tie: the
// admission sequence is unique process-wide.
type OrderingKey struct {
	Class    PriorityClass `json:"class"`
	Sequence uint64        `json:"sequence"`
}

// Less reports whether k orders strictly before other: priority class
// ascending, then admission sequence ascending.
func (k OrderingKey) Less(other OrderingKey) bool {
	if k.Class != other.Class {
		return k.Class < other.Class
	}
	return k.Sequence < other.Sequence
}

// Compare returns -1, 0, or +1 according to the total order.
func (k OrderingKey) Compare(other OrderingKey) int {
	switch {
	case k.Less(other):
		return -1
	case other.Less(k):
		return 1
	default:
		return 0
	}
}

// WithClass returns a new key in the given class keeping the original
// admission sequence. Used by reprioritization to preserve FIFO fairness
// within the destination class.
func (k OrderingKey) WithClass(class PriorityClass) OrderingKey {
	return OrderingKey{Class: class, Sequence: k.Sequence}
}
