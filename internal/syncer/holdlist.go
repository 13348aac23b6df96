package syncer

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// HoldList tracks devices refused sync because their client version does not
// match the server's. Entries expire after a TTL and the list is bounded, so
// a device stuck in mismatch cannot accumulate unbounded state across a
// long-lived process; once an entry lapses the device's next Hello gets a
// fresh version check.
type HoldList struct {
	entries *expirable.LRU[string, time.Time]
}

// NewHoldList constructs a hold list keeping at most size entries, each for
// at most ttl.
func NewHoldList(size int, ttl time.Duration) *HoldList {
	return &HoldList{
		entries: expirable.NewLRU[string, time.Time](size, nil, ttl),
	}
}

// Hold places a device on the list. Holding an empty device id is a no-op:
// an unidentified device cannot be usefully suppressed.
func (h *HoldList) Hold(deviceID string) {
	if deviceID == "" {
		return
	}
	h.entries.Add(deviceID, time.Now())
}

// Held reports whether the device is currently on hold.
func (h *HoldList) Held(deviceID string) bool {
	if deviceID == "" {
		return false
	}
	return h.entries.Contains(deviceID)
}

// Len returns the number of devices currently held.
func (h *HoldList) Len() int {
	return h.entries.Len()
}
