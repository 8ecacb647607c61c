package quality

import "testing"

func TestThresholdClassifier_Buckets(t *testing.T) {
	tests := []struct {
		avgDb float64
		want  Tier
	}{
		{-10, TierExcellent},
		{-19.9, TierExcellent},
		{-20, TierGood},
		{-25, TierGood},
		{-30, TierFair},
		{-35, TierFair},
		{-40, TierPoor},
		{-60, TierPoor},
	}

	c := ThresholdClassifier{}
	for _, tt := range tests {
		if got := c.Classify(tt.avgDb); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.avgDb, got, tt.want)
		}
	}
}

func TestMonitor_ConstantLevelMatchesBucket(t *testing.T) {
	tests := []struct {
		level float64
		want  Tier
	}{
		{-15, TierExcellent},
		{-25, TierGood},
		{-35, TierFair},
		{-50, TierPoor},
	}

	for _, tt := range tests {
		m := NewMonitor()
		for i := 0; i < 150; i++ {
			m.Record(tt.level)
		}
		if got := m.CurrentTier(); got != tt.want {
			t.Errorf("constant %vdB: got %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestMonitor_WindowEvictsOldest(t *testing.T) {
	m := NewMonitor(WithWindowSize(10))

	// Fill with poor levels, then overwrite the whole window with loud ones.
	for i := 0; i < 10; i++ {
		m.Record(-60)
	}
	if got := m.CurrentTier(); got != TierPoor {
		t.Fatalf("expected poor, got %v", got)
	}
	for i := 0; i < 10; i++ {
		m.Record(-10)
	}
	if got := m.CurrentTier(); got != TierExcellent {
		t.Errorf("old samples not evicted: got %v", got)
	}

	avg, ok := m.Average()
	if !ok || avg != -10 {
		t.Errorf("expected average -10, got %v (ok=%v)", avg, ok)
	}
}

func TestMonitor_NoSamplesReportsPoor(t *testing.T) {
	m := NewMonitor()
	if got := m.CurrentTier(); got != TierPoor {
		t.Errorf("expected poor with empty window, got %v", got)
	}
	if _, ok := m.Average(); ok {
		t.Error("expected Average to report no samples")
	}
}

func TestMonitor_TierChangeCallback(t *testing.T) {
	var flips []Tier
	m := NewMonitor(WithWindowSize(4), WithTierChange(func(_, new Tier) {
		flips = append(flips, new)
	}))

	for i := 0; i < 4; i++ {
		m.Record(-50)
	}
	for i := 0; i < 4; i++ {
		m.Record(-10)
	}

	if len(flips) == 0 {
		t.Fatal("expected at least one tier change")
	}
	if flips[len(flips)-1] != TierExcellent {
		t.Errorf("expected final flip to excellent, got %v", flips[len(flips)-1])
	}
}

func TestTier_String(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{TierExcellent, "excellent"},
		{TierGood, "good"},
		{TierFair, "fair"},
		{TierPoor, "poor"},
		{Tier(42), "UNKNOWN(42)"},
	}
	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("Tier(%d).String() = %q, want %q", tt.tier, got, tt.want)
		}
	}
}
