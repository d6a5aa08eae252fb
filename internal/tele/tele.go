package tele

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hpcguemes/totem/log2"
	tele_api "github.com/hpcguemes/totem/tele"
	tele_config "github.com/hpcguemes/totem/tele/config"
	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
)

// Tele contract:
// - Init() fails only with invalid config, network issues ignored
// - State/Event/Error never block on network, messages may be lost while offline
// - disabled tele accepts all calls and sends nothing
// - Close() flushes and disconnects
type tele struct { //nolint:maligned
	config    tele_config.Config
	log       *log2.Log
	transport Transporter
	clock     clockwork.Clock
	stat      tele_api.Stat

	mu           sync.Mutex
	currentState tele_api.State
}

func New() tele_api.Teler {
	return &tele{}
}

// NewWithTransporter is test entry point.
func NewWithTransporter(trans Transporter, clock clockwork.Clock) tele_api.Teler {
	return &tele{transport: trans, clock: clock}
}

func (self *tele) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config) error {
	self.config = teleConfig
	self.log = log
	if self.config.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	if self.clock == nil {
		self.clock = clockwork.NewRealClock()
	}
	self.stat.Lock()
	self.stat.Locked_Reset()
	self.stat.Unlock()
	if !self.config.Enabled {
		self.log.Infof("tele disabled")
		return nil
	}
	if self.config.KioskId == "" {
		return errors.NotValidf("tele.kiosk_id empty")
	}

	willPayload, err := self.marshalState(tele_api.State_Disconnected, false)
	if err != nil {
		return errors.Annotate(err, "tele will")
	}
	// test code sets .transport
	if self.transport == nil { // production path
		self.transport = &transportMqtt{}
	}
	if err := self.transport.Init(ctx, log, teleConfig, willPayload); err != nil {
		return errors.Annotate(err, "tele transport")
	}
	self.State(tele_api.State_Boot)
	return nil
}

func (self *tele) Close() {
	if self.transport != nil && self.config.Enabled {
		self.transport.Close()
	}
}

func (self *tele) State(s tele_api.State) {
	self.mu.Lock()
	changed := self.currentState != s
	self.currentState = s
	self.mu.Unlock()
	if !self.config.Enabled {
		return
	}
	if changed {
		self.log.Debugf("tele state=%s", s.String())
	}
	payload, err := self.marshalState(s, true)
	if err != nil {
		self.log.Errorf("CRITICAL tele state marshal err=%v", err)
		return
	}
	if !self.transport.SendState(payload) {
		self.log.Debugf("tele state=%s not queued", s.String())
	}
}

func (self *tele) Event(e tele_api.Event) {
	if !self.config.Enabled {
		return
	}
	if e.Time == 0 {
		e.Time = self.clock.Now().UnixNano()
	}
	e.Kiosk = self.config.KioskId
	payload, err := json.Marshal(e)
	if err != nil {
		self.log.Errorf("CRITICAL tele event marshal e=%#v err=%v", e, err)
		return
	}
	if !self.transport.SendTelemetry(payload) {
		self.log.Debugf("tele event=%s not queued", e.Name)
	}
}

// Error is hooked into log2 error func, so it must not log errors itself.
func (self *tele) Error(err error) {
	if err == nil {
		return
	}
	self.Event(tele_api.Event{Name: tele_api.EventError, Error: err.Error()})
}

func (self *tele) StatModify(fun func(*tele_api.Stat)) {
	self.stat.Lock()
	fun(&self.stat)
	self.stat.Unlock()
}

func (self *tele) CurrentState() tele_api.State {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.currentState
}

func (self *tele) marshalState(s tele_api.State, withStat bool) ([]byte, error) {
	msg := tele_api.StateMessage{
		Time:    self.clock.Now().UnixNano(),
		Kiosk:   self.config.KioskId,
		Version: self.config.BuildVersion,
		State:   s,
	}
	if withStat {
		self.stat.Lock()
		msg.Stat = self.stat.Locked_Copy()
		self.stat.Locked_Reset()
		self.stat.Unlock()
	}
	return json.Marshal(msg)
}
