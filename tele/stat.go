package tele

import (
	"sync"
)

// Low priority counters. Can be updated at any time.
// Sent together with next state message, then reset.
type Stat struct {
	sync.Mutex
	Stat_Counters
}

type Stat_Counters struct {
	Sessions  uint32            `json:"sessions"`
	Timeouts  uint32            `json:"timeouts"`
	Confirmed uint32            `json:"confirmed"`
	Routed    uint32            `json:"routed"`
	Lookup    map[string]uint32 `json:"lookup,omitempty"` // outcome -> count
}

// Internal for tele package. Caller must hold self.Mutex.
func (self *Stat) Locked_Reset() {
	self.Stat_Counters = Stat_Counters{Lookup: make(map[string]uint32, 5)}
}

// Internal for tele package. Caller must hold self.Mutex.
func (self *Stat) Locked_Copy() *Stat_Counters {
	c := self.Stat_Counters
	c.Lookup = make(map[string]uint32, len(self.Lookup))
	for k, v := range self.Lookup {
		c.Lookup[k] = v
	}
	return &c
}
