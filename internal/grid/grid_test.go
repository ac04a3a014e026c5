package grid

import "testing"

func TestBucketStart_OriginAligned(t *testing.T) {
	const width = int64(60_000)

	if got := BucketStart(0, 0, width); got != 0 {
		t.Errorf("BucketStart(0, 0, 60000) = %d, want 0", got)
	}
	if got := BucketStart(59_999, 0, width); got != 0 {
		t.Errorf("BucketStart(59999, 0, 60000) = %d, want 0", got)
	}
	if got := BucketStart(60_000, 0, width); got != 60_000 {
		t.Errorf("BucketStart(60000, 0, 60000) = %d, want 60000", got)
	}

	// Arbitrary origin shifts the grid.
	if got := BucketStart(60_000, 15_000, width); got != 15_000 {
		t.Errorf("BucketStart(60000, 15000, 60000) = %d, want 15000", got)
	}
	if got := BucketStart(75_000, 15_000, width); got != 75_000 {
		t.Errorf("BucketStart(75000, 15000, 60000) = %d, want 75000", got)
	}
}

func TestBucketStart_BeforeOrigin(t *testing.T) {
	const width = int64(60_000)

	// Timestamps before the origin must floor, not truncate toward zero.
	if got := BucketStart(-1, 0, width); got != -60_000 {
		t.Errorf("BucketStart(-1, 0, 60000) = %d, want -60000", got)
	}
	if got := BucketStart(14_999, 15_000, width); got != -45_000 {
		t.Errorf("BucketStart(14999, 15000, 60000) = %d, want -45000", got)
	}
}

func TestBucketStart_Idempotent(t *testing.T) {
	cases := []struct {
		ts, origin, width int64
	}{
		{0, 0, 60_000},
		{123_456, 0, 60_000},
		{123_456, 7_000, 60_000},
		{-98_765, 7_000, 60_000},
		{1_700_000_123_456, 1_699_999_000_000, 300_000},
	}
	for _, c := range cases {
		first := BucketStart(c.ts, c.origin, c.width)
		second := BucketStart(first, c.origin, c.width)
		if first != second {
			t.Errorf("BucketStart not idempotent for ts=%d origin=%d width=%d: %d != %d",
				c.ts, c.origin, c.width, first, second)
		}
	}
}

func TestGrids_AgreeWhenOriginIsMultipleOfWidth(t *testing.T) {
	const width = int64(60_000)
	origin := int64(42) * width

	for _, ts := range []int64{0, 1, 59_999, 60_000, 2_520_001, -30_000} {
		aligned := BucketStart(ts, origin, width)
		wall := WallBucketStart(ts, width)
		if aligned != wall {
			t.Errorf("grids disagree at ts=%d: aligned=%d wall=%d", ts, aligned, wall)
		}
	}
}

func TestGrids_DisagreeNearBoundaryWhenDrifted(t *testing.T) {
	const width = int64(60_000)
	const origin = int64(15_000)

	// Within drift distance of a wall boundary the two grids split.
	ts := int64(60_000 + 5_000) // 65000: wall bucket 60000, aligned bucket 15000
	if aligned, wall := BucketStart(ts, origin, width), WallBucketStart(ts, width); aligned == wall {
		t.Errorf("expected grid split at ts=%d, both grids gave %d", ts, aligned)
	}
}

func TestDrift(t *testing.T) {
	if got := Drift(0, 60_000); got != 0 {
		t.Errorf("Drift(0, 60000) = %d, want 0", got)
	}
	if got := Drift(120_000, 60_000); got != 0 {
		t.Errorf("Drift(120000, 60000) = %d, want 0", got)
	}
	if got := Drift(15_000, 60_000); got != 15_000 {
		t.Errorf("Drift(15000, 60000) = %d, want 15000", got)
	}
	if got := Drift(-15_000, 60_000); got != 45_000 {
		t.Errorf("Drift(-15000, 60000) = %d, want 45000", got)
	}
}
