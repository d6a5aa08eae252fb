// Package ui is the kiosk session controller.
// One goroutine (Loop) owns Session; renderer callbacks, input activity,
// remote replies and inactivity timeouts arrive as events.
package ui

import (
	"context"
	"sync/atomic"

	"github.com/hpcguemes/totem/helpers"
	"github.com/hpcguemes/totem/internal/state"
	"github.com/hpcguemes/totem/internal/timer"
	"github.com/hpcguemes/totem/internal/types"
	ui_config "github.com/hpcguemes/totem/internal/ui/config"
	"github.com/juju/errors"
)

const (
	DefaultDocumentMinLen = 7
	DefaultDocumentMaxLen = 10

	actionBuffer = 16
)

type UI struct { //nolint:maligned
	config    *ui_config.Config
	g         *state.Global
	renderer  Renderer
	callbacks Callbacks
	timer     *timer.Inactivity
	session   Session
	epoch     uint64
	healthy   bool
	screen    uint32
	snap      atomic.Value // Snapshot
	eventch   chan types.Event
	actionch  chan types.Action
	inputch   chan types.InputEvent

	XXX_testHook func(Screen)
}

func (self *UI) Init(ctx context.Context, renderer Renderer) error {
	self.g = state.GetGlobal(ctx)
	self.config = &self.g.Config.UI
	if renderer == nil {
		return errors.NotValidf("ui renderer=nil")
	}
	self.renderer = renderer
	self.setScreen(ScreenBoot)

	if self.config.DocumentMinLen <= 0 {
		self.config.DocumentMinLen = DefaultDocumentMinLen
	}
	if self.config.DocumentMaxLen <= 0 {
		self.config.DocumentMaxLen = DefaultDocumentMaxLen
	}
	if self.config.DocumentMaxLen < self.config.DocumentMinLen {
		return errors.NotValidf("ui document_max_len=%d < document_min_len=%d", self.config.DocumentMaxLen, self.config.DocumentMinLen)
	}
	if len(self.config.Secretaries) == 0 {
		self.config.Secretaries = DefaultSecretaries()
	}
	for i, s := range self.config.Secretaries {
		if s.Id == "" || s.Floor == "" {
			return errors.NotValidf("ui secretary[%d] id=%q floor=%q", i, s.Id, s.Floor)
		}
		if s.Name == "" {
			self.config.Secretaries[i].Name = s.Id
		}
	}
	setDefault(&self.config.MsgDocumentEmpty, "Por favor ingrese su número de documento")
	setDefault(&self.config.MsgDocumentTooShort, "El número de documento debe tener al menos %d dígitos")
	setDefault(&self.config.MsgDocumentTooLong, "El número de documento debe tener como máximo %d dígitos")
	setDefault(&self.config.MsgNoAppointment, "Paciente no cuenta con turno programado. Por favor elegir y dirigirse a la secretaria correspondiente.")
	setDefault(&self.config.MsgLookupFailed, "No se pudo consultar su turno. Por favor elegir y dirigirse a la secretaria correspondiente.")
	setDefault(&self.config.MsgConfirmed, "Su turno ha sido confirmado exitosamente.")
	setDefault(&self.config.MsgConfirmFailed, "No se pudo confirmar el turno. Intente nuevamente.")
	setDefault(&self.config.MsgServiceLogged, "Su solicitud para %s ha sido registrada.")
	setDefault(&self.config.MsgServiceFailed, "No se pudo registrar la solicitud. Intente nuevamente.")
	setDefault(&self.config.MsgWait, "Por favor tome asiento y aguarde a ser llamado por secretaria.")
	setDefault(&self.config.MsgDegraded, "Servicio no disponible. Por favor dirigirse a la secretaria correspondiente.")

	resetTimeout := helpers.IntSecondDefault(self.config.ResetTimeoutSec, timer.DefaultTimeout)
	self.timer = timer.New(self.g.Clock, resetTimeout)
	self.eventch = make(chan types.Event)
	self.actionch = make(chan types.Action, actionBuffer)
	if self.g.Input != nil {
		self.inputch = self.g.Input.SubscribeChan("ui", self.g.Alive.StopChan())
	}
	self.callbacks = Callbacks{
		OnSelectFlow:     self.SelectFlow,
		OnSubmitDocument: self.SubmitDocument,
		OnConfirm:        self.Confirm,
		OnSelectService:  self.SelectService,
		OnBack:           self.Back,
		OnGoHome:         self.GoHome,
		OnActivity:       self.Activity,
	}
	self.g.Log.Debugf("ui init reset=%v secretaries=%d", resetTimeout, len(self.config.Secretaries))
	return nil
}

func DefaultSecretaries() []ui_config.Secretary {
	return []ui_config.Secretary{
		{Id: "pb", Name: "Planta Baja", Floor: "PB"},
		{Id: "pp", Name: "Primer Piso", Floor: "1"},
		{Id: "2p", Name: "Segundo Piso", Floor: "2"},
		{Id: "3p", Name: "Tercer Piso", Floor: "3"},
	}
}

// Snapshot is the last rendered state, safe to call from any goroutine.
func (self *UI) Snapshot() Snapshot {
	if s, ok := self.snap.Load().(Snapshot); ok {
		return s
	}
	return Snapshot{}
}

func (self *UI) Callbacks() Callbacks { return self.callbacks }

func (self *UI) SelectFlow(flow Flow) {
	self.post(types.Action{Kind: types.ActionSelectFlow, Arg: flow.String()})
}
func (self *UI) SubmitDocument(document string) {
	self.post(types.Action{Kind: types.ActionSubmitDocument, Arg: document})
}
func (self *UI) Confirm() { self.post(types.Action{Kind: types.ActionConfirm}) }
func (self *UI) SelectService(secretaryId string) {
	self.post(types.Action{Kind: types.ActionSelectService, Arg: secretaryId})
}
func (self *UI) Back()     { self.post(types.Action{Kind: types.ActionBack}) }
func (self *UI) GoHome()   { self.post(types.Action{Kind: types.ActionGoHome}) }
func (self *UI) Activity() { self.post(types.Action{Kind: types.ActionActivity}) }
func (self *UI) Reset()    { self.post(types.Action{Kind: types.ActionReset}) }

func (self *UI) post(a types.Action) {
	select {
	case self.actionch <- a:
	case <-self.g.Alive.StopChan():
	default:
		self.g.Log.Errorf("ui action queue full, dropped action=%s", a.Kind.String())
	}
}

func (self *UI) wait() types.Event {
again:
	select {
	case a := <-self.actionch:
		return types.Event{Kind: types.EventAction, Action: a}

	case e := <-self.eventch:
		if e.Kind == types.EventReply && e.Seq != self.epoch {
			self.g.Log.Debugf("ui drop stale %s current epoch=%d", e.String(), self.epoch)
			goto again
		}
		return e

	case e, ok := <-self.inputch:
		if !ok {
			self.inputch = nil
			goto again
		}
		return types.Event{Kind: types.EventInput, Input: e}

	case sig := <-self.timer.C():
		if !self.timer.Live(sig.Gen) {
			goto again
		}
		return types.Event{Kind: types.EventTime, Seq: sig.Gen}

	case <-self.g.Alive.StopChan():
		return types.Event{Kind: types.EventStop}
	}
}

// call runs remote operation off the loop goroutine.
// Reply is tagged with current epoch, so reset makes it stale.
func (self *UI) call(ctx context.Context, fun func(context.Context) interface{}) {
	if !self.g.Alive.Add(1) {
		return
	}
	epoch := self.epoch
	go func() {
		defer self.g.Alive.Done()
		reply := fun(ctx)
		select {
		case self.eventch <- types.Event{Kind: types.EventReply, Reply: reply, Seq: epoch}:
		case <-self.g.Alive.StopChan():
		}
	}()
}

func setDefault(s *string, def string) {
	if *s == "" {
		*s = def
	}
}
