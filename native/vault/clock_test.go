package vault

import (
	"testing"
	"time"
)

func TestFixedLengthClockEpochs(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFixedLengthClock(genesis, 14*24*time.Hour)

	cases := []struct {
		at   time.Time
		want uint64
	}{
		{genesis, 1},
		{genesis.Add(13 * 24 * time.Hour), 1},
		{genesis.Add(14 * 24 * time.Hour), 2},
		{genesis.Add(14*24*time.Hour - time.Second), 1},
		{genesis.Add(70 * 24 * time.Hour), 6},
	}
	for _, tc := range cases {
		at := tc.at
		clock.SetNowFunc(func() int64 { return at.Unix() })
		if got := clock.CurrentEpoch(); got != tc.want {
			t.Fatalf("epoch at %s = %d, want %d", tc.at, got, tc.want)
		}
	}
}

func TestFixedLengthClockBeforeGenesis(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFixedLengthClock(genesis, time.Hour)
	clock.SetNowFunc(func() int64 { return genesis.Add(-time.Hour).Unix() })
	// Epoch numbering starts at 1; pre-genesis time clamps there.
	if got := clock.CurrentEpoch(); got != 1 {
		t.Fatalf("pre-genesis epoch = %d, want 1", got)
	}
}
