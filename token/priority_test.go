package token

import "testing"

// ---------------------------------------------------------------------------
// PriorityClass
// ---------------------------------------------------------------------------

func TestPriorityClass_Valid(t *testing.T) {
	for p := PriorityCritical; p <= PriorityConsultation; p++ {
		if !p.Valid() {
			t.Errorf("class %d should be valid", p)
		}
	}
	for _, p := range []PriorityClass{0, -1, 7, 100} {
		if p.Valid() {
			t.Errorf("class %d should be invalid", p)
		}
	}
}

func TestPriorityClass_Prefix(t *testing.T) {
	cases := []struct {
		class PriorityClass
		want  string
	}{
		{PriorityCritical, "E"},
		{PriorityHigh, "H"},
		{PriorityMediumHigh, "MH"},
		{PriorityMediumLow, "ML"},
		{PriorityReportPickup, "R"},
		{PriorityConsultation, "C"},
		{PriorityClass(0), "X"},
	}
	for _, c := range cases {
		if got := c.class.Prefix(); got != c.want {
			t.Errorf("Prefix(%d)=%q, want %q", c.class, got, c.want)
		}
	}
}

func TestPriorityClass_BaseMinutes(t *testing.T) {
	cases := []struct {
		class PriorityClass
		want  int
	}{
		{PriorityCritical, 0},
		{PriorityHigh, 5},
		{PriorityMediumHigh, 15},
		{PriorityMediumLow, 20},
		{PriorityReportPickup, 5},
		{PriorityConsultation, 10},
		{PriorityClass(99), 20},
	}
	for _, c := range cases {
		if got := c.class.BaseMinutes(); got != c.want {
			t.Errorf("BaseMinutes(%d)=%d, want %d", c.class, got, c.want)
		}
	}
}

func TestClassForCategory(t *testing.T) {
	cases := []struct {
		category string
		want     PriorityClass
	}{
		{"emergency", PriorityCritical},
		{"urgent_medical", PriorityHigh},
		{"serious_condition", PriorityMediumHigh},
		{"regular_consultation", PriorityMediumLow},
		{"report_pickup", PriorityReportPickup},
		{"report_consultation", PriorityConsultation},
		{"", PriorityMediumLow},
		{"no_such_category", PriorityMediumLow},
	}
	for _, c := range cases {
		if got := ClassForCategory(c.category); got != c.want {
			t.Errorf("ClassForCategory(%q)=%v, want %v", c.category, got, c.want)
		}
	}
}
