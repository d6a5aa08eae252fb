package tele

import (
	"context"

	"github.com/hpcguemes/totem/log2"
	tele_config "github.com/hpcguemes/totem/tele/config"
)

// Tele transport contract:
// - Init fails only with invalid config, ignores network errors
// - application may start without network available
// - Send* must not block caller on network; false means message was not queued
// - willPayload is published by broker when kiosk disappears
type Transporter interface {
	Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config, willPayload []byte) error
	SendState(payload []byte) bool
	SendTelemetry(payload []byte) bool
	Close()
}
