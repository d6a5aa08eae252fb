package tele

import (
	"context"

	"github.com/hpcguemes/totem/log2"
	tele_config "github.com/hpcguemes/totem/tele/config"
)

// Teler interface Telemetry client, kiosk side.
// All methods except Init must not block on network.
type Teler interface {
	Init(context.Context, *log2.Log, tele_config.Config) error
	Close()
	State(State)
	Event(Event)
	Error(error)
	StatModify(func(*Stat))
}

// NewStub is telemetry for tests and tools that never publish.
func NewStub() Teler { return Noop{} }
