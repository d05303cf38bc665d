package vault

import "time"

// FixedLengthClock derives the current epoch from wall time: fixed-length
// periods counted from a genesis instant. Epoch numbering starts at 1 so that
// zero can mean "never active" in the utilization ledger.
type FixedLengthClock struct {
	genesisUnix  int64
	epochSeconds int64
	nowFn        func() int64
}

// NewFixedLengthClock constructs a clock with the given genesis time and
// epoch length.
func NewFixedLengthClock(genesis time.Time, epochLength time.Duration) *FixedLengthClock {
	seconds := int64(epochLength / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	return &FixedLengthClock{
		genesisUnix:  genesis.Unix(),
		epochSeconds: seconds,
		nowFn:        func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source, primarily for tests.
func (c *FixedLengthClock) SetNowFunc(now func() int64) {
	if now == nil {
		c.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	c.nowFn = now
}

// CurrentEpoch implements the EpochClock interface.
func (c *FixedLengthClock) CurrentEpoch() uint64 {
	now := c.nowFn()
	if now < c.genesisUnix {
		return 1
	}
	return uint64((now-c.genesisUnix)/c.epochSeconds) + 1
}
