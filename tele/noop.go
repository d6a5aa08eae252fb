package tele

import (
	"context"

	"github.com/hpcguemes/totem/log2"
	tele_config "github.com/hpcguemes/totem/tele/config"
)

// Noop replaces failed telemetry so the kiosk keeps serving patients.
type Noop struct{}

var _ Teler = Noop{} // compile-time interface test

func (Noop) Init(context.Context, *log2.Log, tele_config.Config) error { return nil }

func (Noop) Close() {}

func (Noop) Error(error) {}

func (Noop) State(State) {}

func (Noop) Event(Event) {}

func (Noop) StatModify(func(*Stat)) {}
