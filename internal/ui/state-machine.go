package ui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hpcguemes/totem/internal/remote"
	"github.com/hpcguemes/totem/internal/types"
	ui_config "github.com/hpcguemes/totem/internal/ui/config"
	tele_api "github.com/hpcguemes/totem/tele"
)

type Screen uint32

const (
	ScreenInvalid Screen = iota
	ScreenBoot
	ScreenWelcome
	ScreenDocumentInput
	ScreenAppointmentConfirmation
	ScreenOtherServices
	ScreenWaiting
	ScreenStop
)

func (s Screen) String() string {
	switch s {
	case ScreenInvalid:
		return "Invalid"
	case ScreenBoot:
		return "Boot"
	case ScreenWelcome:
		return "Welcome"
	case ScreenDocumentInput:
		return "DocumentInput"
	case ScreenAppointmentConfirmation:
		return "AppointmentConfirmation"
	case ScreenOtherServices:
		return "OtherServices"
	case ScreenWaiting:
		return "Waiting"
	case ScreenStop:
		return "Stop"
	}
	return fmt.Sprintf("Screen(%d)", uint32(s))
}

type lookupReply struct {
	document string
	result   remote.Result[remote.PatientRecord]
}
type confirmReply struct {
	result remote.Result[remote.Ack]
}
type serviceReply struct {
	secretary ui_config.Secretary
	result    remote.Result[remote.Ack]
}

const (
	resetTimeout = "timeout"
	resetHome    = "home"
	resetForced  = "reset"
)

func (self *UI) Screen() Screen       { return Screen(atomic.LoadUint32(&self.screen)) }
func (self *UI) setScreen(new Screen) { atomic.StoreUint32(&self.screen, uint32(new)) }

func (self *UI) Loop(ctx context.Context) {
	if !self.g.Alive.Add(1) {
		return
	}
	defer self.g.Alive.Done()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer self.timer.Close()

	self.boot(ctx)
	self.testHook()
	for {
		e := self.wait()
		if e.Kind == types.EventStop {
			break
		}
		self.handle(ctx, e)
		self.testHook()
	}
	self.setScreen(ScreenStop)
	self.testHook()
	self.g.Log.Debugf("ui loop end")
}

// boot checks backend once, terminal property carried over resets.
func (self *UI) boot(ctx context.Context) {
	self.g.Tele.State(tele_api.State_Boot)
	health := self.g.Remote.CheckHealth(ctx)
	self.healthy = health.Ok() && health.Value.Healthy()
	if self.healthy {
		self.g.Tele.State(tele_api.State_Nominal)
	} else {
		if health.Err != nil {
			self.g.Log.Errorf("ui backend health: %v", health.Err)
		} else {
			self.g.Log.Errorf("ui backend health status=%s", health.Value.Status)
		}
		self.g.Tele.State(tele_api.State_Degraded)
	}
	self.session = newSession(self.healthy, self.homeNotice())
	self.mount(ScreenWelcome)
}

func (self *UI) handle(ctx context.Context, e types.Event) {
	self.g.Log.Debugf("ui screen=%s busy=%t %s", self.session.Screen.String(), self.session.Busy, e.String())
	switch e.Kind {
	case types.EventAction:
		self.onAction(ctx, e.Action)

	case types.EventInput:
		self.timer.Arm()

	case types.EventReply:
		if !self.session.Busy {
			self.g.Log.Errorf("ui reply without outstanding call %s", e.String())
			return
		}
		self.session.Busy = false
		switch r := e.Reply.(type) {
		case lookupReply:
			self.onLookup(r)
		case confirmReply:
			self.onConfirmed(r)
		case serviceReply:
			self.onServiceLogged(r)
		default:
			panic(fmt.Sprintf("code error ui unknown reply=%T", e.Reply))
		}

	case types.EventTime:
		if self.session.pristine(self.homeNotice()) {
			self.g.Log.Debugf("ui timeout on pristine welcome")
			return
		}
		self.g.Log.Infof("ui inactivity timeout screen=%s", self.session.Screen.String())
		self.g.Tele.StatModify(func(st *tele_api.Stat) { st.Timeouts++ })
		self.reset(resetTimeout)

	default:
		panic("code error ui unhandled event=" + e.String())
	}
}

func (self *UI) onAction(ctx context.Context, a types.Action) {
	// any action is user presence
	self.timer.Arm()

	switch a.Kind {
	case types.ActionActivity:
		return
	case types.ActionReset:
		self.reset(resetForced)
		return
	}
	if self.session.Busy {
		self.g.Log.Debugf("ui busy, ignore action=%s", a.Kind.String())
		return
	}

	s := &self.session
	switch a.Kind {
	case types.ActionSelectFlow:
		if s.Screen != ScreenWelcome {
			break
		}
		flow, ok := ParseFlow(a.Arg)
		if !ok {
			self.g.Log.Errorf("ui invalid flow=%q", a.Arg)
			return
		}
		s.Flow = flow
		s.Notice = Notice{}
		self.g.Tele.StatModify(func(st *tele_api.Stat) { st.Sessions++ })
		self.event(tele_api.EventFlow, flow.String(), "")
		self.mount(ScreenDocumentInput)
		return

	case types.ActionSubmitDocument:
		if s.Screen != ScreenDocumentInput {
			break
		}
		self.submitDocument(ctx, a.Arg)
		return

	case types.ActionConfirm:
		if s.Screen != ScreenAppointmentConfirmation {
			break
		}
		if s.Patient == nil {
			panic("code error ui confirm without patient")
		}
		s.Busy = true
		s.Notice = Notice{}
		self.render()
		document := s.document()
		self.call(ctx, func(ctx context.Context) interface{} {
			return confirmReply{result: self.g.Remote.ConfirmAppointment(ctx, document)}
		})
		return

	case types.ActionSelectService:
		if s.Screen != ScreenOtherServices {
			break
		}
		sec, ok := self.config.Secretary(a.Arg)
		if !ok {
			self.g.Log.Errorf("ui unknown secretary=%q", a.Arg)
			return
		}
		if s.Patient == nil {
			panic("code error ui service request without patient")
		}
		s.Busy = true
		s.Notice = Notice{}
		self.render()
		document := s.document()
		self.call(ctx, func(ctx context.Context) interface{} {
			return serviceReply{secretary: sec, result: self.g.Remote.LogServiceRequest(ctx, document, sec.Id, sec.Floor)}
		})
		return

	case types.ActionBack:
		switch s.Screen {
		case ScreenWelcome:
		case ScreenDocumentInput:
			s.Flow = FlowNone
			s.InputError = ""
			s.Notice = self.homeNotice()
			self.mount(ScreenWelcome)
		case ScreenAppointmentConfirmation, ScreenOtherServices:
			s.Patient = nil
			s.Notice = Notice{}
			self.mount(ScreenDocumentInput)
		case ScreenWaiting:
			self.reset(resetHome)
		}
		return

	case types.ActionGoHome:
		if s.pristine(self.homeNotice()) {
			return
		}
		self.reset(resetHome)
		return

	default:
		panic("code error ui unhandled action=" + a.Kind.String())
	}
	self.g.Log.Debugf("ui action=%s not valid on screen=%s", a.Kind.String(), s.Screen.String())
}

func (self *UI) submitDocument(ctx context.Context, input string) {
	s := &self.session
	document := documentDigits(input)
	switch {
	case strings.TrimSpace(input) == "":
		s.InputError = self.config.MsgDocumentEmpty
	case len(document) < self.config.DocumentMinLen:
		s.InputError = fmt.Sprintf(self.config.MsgDocumentTooShort, self.config.DocumentMinLen)
	case len(document) > self.config.DocumentMaxLen:
		s.InputError = fmt.Sprintf(self.config.MsgDocumentTooLong, self.config.DocumentMaxLen)
	default:
		s.InputError = ""
	}
	if s.InputError != "" {
		self.render()
		return
	}

	s.Busy = true
	s.Notice = Notice{}
	self.render()
	self.call(ctx, func(ctx context.Context) interface{} {
		return lookupReply{document: document, result: self.g.Remote.FindPatientByDocument(ctx, document)}
	})
}

// documentDigits drops separators like dots and dashes, only ASCII digits remain.
func documentDigits(input string) string {
	b := make([]byte, 0, len(input))
	for i := 0; i < len(input); i++ {
		if c := input[i]; c >= '0' && c <= '9' {
			b = append(b, c)
		}
	}
	return string(b)
}

func (self *UI) onLookup(r lookupReply) {
	s := &self.session
	outcome := "Ok"
	if !r.result.Ok() {
		outcome = r.result.Kind().String()
		self.g.Log.Infof("ui lookup session=%s: %v", s.ID, r.result.Err)
	}
	self.g.Tele.StatModify(func(st *tele_api.Stat) {
		if st.Lookup == nil {
			st.Lookup = make(map[string]uint32)
		}
		st.Lookup[outcome]++
	})
	self.event(tele_api.EventLookup, outcome, "")

	if r.result.Ok() && r.result.Value.HasAppointment() && s.Flow == FlowAppointment {
		patient := r.result.Value
		s.Patient = &patient
		self.mount(ScreenAppointmentConfirmation)
		return
	}

	// lookup failure is never a dead end
	s.Patient = &remote.PatientRecord{DocumentID: r.document}
	switch r.result.Kind() {
	case remote.KindNetwork, remote.KindUnknown:
		s.Notice = Notice{Text: self.config.MsgLookupFailed, Severity: SeverityInfo}
	default:
		if s.Flow == FlowAppointment {
			s.Notice = Notice{Text: self.config.MsgNoAppointment, Severity: SeverityInfo}
		}
	}
	self.mount(ScreenOtherServices)
}

func (self *UI) onConfirmed(r confirmReply) {
	s := &self.session
	if !r.result.Ok() {
		self.g.Log.Errorf("ui confirm session=%s: %v", s.ID, r.result.Err)
		s.Notice = Notice{Text: self.config.MsgConfirmFailed, Severity: SeverityDestructive}
		self.event(tele_api.EventConfirm, r.result.Kind().String(), "")
		self.render()
		return
	}
	s.SelectedFloor = s.Patient.Appointment.Floor
	s.Notice = Notice{Text: self.config.MsgConfirmed, Severity: SeverityInfo}
	self.g.Tele.StatModify(func(st *tele_api.Stat) { st.Confirmed++ })
	self.event(tele_api.EventConfirm, "Ok", s.SelectedFloor)
	self.mount(ScreenWaiting)
}

func (self *UI) onServiceLogged(r serviceReply) {
	s := &self.session
	if !r.result.Ok() {
		self.g.Log.Errorf("ui service request session=%s secretary=%s: %v", s.ID, r.secretary.Id, r.result.Err)
		s.Notice = Notice{Text: self.config.MsgServiceFailed, Severity: SeverityDestructive}
		self.event(tele_api.EventService, r.result.Kind().String(), "")
		self.render()
		return
	}
	s.SelectedFloor = r.secretary.Floor
	s.Notice = Notice{Text: fmt.Sprintf(self.config.MsgServiceLogged, r.secretary.Name), Severity: SeverityInfo}
	self.g.Tele.StatModify(func(st *tele_api.Stat) { st.Routed++ })
	self.event(tele_api.EventService, r.secretary.Id, s.SelectedFloor)
	self.mount(ScreenWaiting)
}

// reset drops whole session. In-flight replies become stale.
func (self *UI) reset(reason string) {
	old := self.session.ID
	self.epoch++
	self.session = newSession(self.healthy, self.homeNotice())
	self.g.Tele.Event(tele_api.Event{Session: old, Name: tele_api.EventReset, Outcome: reason})
	self.g.Log.Debugf("ui reset reason=%s epoch=%d", reason, self.epoch)
	self.mount(ScreenWelcome)
}

func (self *UI) homeNotice() Notice {
	if self.healthy {
		return Notice{}
	}
	return Notice{Text: self.config.MsgDegraded, Severity: SeverityDestructive}
}

// mount enters screen: restarts inactivity countdown and renders.
func (self *UI) mount(screen Screen) {
	self.session.Screen = screen
	self.setScreen(screen)
	self.timer.Arm()
	self.render()
}

func (self *UI) render() {
	var idle time.Duration
	if self.g.Input != nil {
		idle = self.g.Input.IdleFor()
	}
	snap := self.session.snapshot(self.config.Secretaries, idle)
	self.snap.Store(snap)
	self.renderer.Render(View{Screen: snap.Screen, Props: snap, Callbacks: self.callbacks})
}

func (self *UI) event(name, outcome, floor string) {
	self.g.Tele.Event(tele_api.Event{
		Session: self.session.ID,
		Name:    name,
		Screen:  self.session.Screen.String(),
		Outcome: outcome,
		Floor:   floor,
	})
}

func (self *UI) testHook() {
	if self.XXX_testHook != nil {
		self.XXX_testHook(self.Screen())
	}
}
