package tele

import (
	"encoding/json"
	"fmt"
)

type State uint8

const (
	State_Invalid State = iota
	State_Boot
	State_Nominal
	State_Degraded
	State_Disconnected
)

func (s State) String() string {
	switch s {
	case State_Invalid:
		return "invalid"
	case State_Boot:
		return "boot"
	case State_Nominal:
		return "nominal"
	case State_Degraded:
		return "degraded"
	case State_Disconnected:
		return "disconnected"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

func (s State) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *State) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	for i := State_Invalid; i <= State_Disconnected; i++ {
		if i.String() == str {
			*s = i
			return nil
		}
	}
	return fmt.Errorf("tele state=%s unknown", str)
}

// Session event names.
const (
	EventFlow    = "flow"
	EventLookup  = "lookup"
	EventConfirm = "confirm"
	EventService = "service"
	EventReset   = "reset"
	EventError   = "error"
)

// Event never carries patient document or name, only session id.
type Event struct {
	Time    int64  `json:"time"`
	Kiosk   string `json:"kiosk"`
	Session string `json:"session,omitempty"`
	Name    string `json:"name"`
	Screen  string `json:"screen,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Floor   string `json:"floor,omitempty"`
	Error   string `json:"error,omitempty"`
}

type StateMessage struct {
	Time    int64          `json:"time"`
	Kiosk   string         `json:"kiosk"`
	Version string         `json:"version,omitempty"`
	State   State          `json:"state"`
	Stat    *Stat_Counters `json:"stat,omitempty"`
}
