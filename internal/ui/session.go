package ui

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hpcguemes/totem/internal/remote"
	ui_config "github.com/hpcguemes/totem/internal/ui/config"
)

type Flow uint8

const (
	FlowNone Flow = iota
	FlowAppointment
	FlowOtherServices
)

func (f Flow) String() string {
	switch f {
	case FlowNone:
		return "none"
	case FlowAppointment:
		return "appointment"
	case FlowOtherServices:
		return "other-services"
	}
	return fmt.Sprintf("Flow(%d)", uint8(f))
}

func ParseFlow(s string) (Flow, bool) {
	switch s {
	case "appointment":
		return FlowAppointment, true
	case "other-services":
		return FlowOtherServices, true
	}
	return FlowNone, false
}

type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityDestructive
)

func (s Severity) String() string {
	if s == SeverityDestructive {
		return "destructive"
	}
	return "info"
}

type Notice struct {
	Text     string
	Severity Severity
}

func (n Notice) IsZero() bool { return n.Text == "" }

// Session is owned by UI.Loop goroutine. Renderer only sees Snapshot.
type Session struct {
	ID             string
	Screen         Screen
	Flow           Flow
	Patient        *remote.PatientRecord
	SelectedFloor  string
	BackendHealthy bool
	Busy           bool
	Notice         Notice
	InputError     string
}

func newSession(healthy bool, home Notice) Session {
	return Session{
		ID:             uuid.New().String(),
		Screen:         ScreenWelcome,
		BackendHealthy: healthy,
		Notice:         home,
	}
}

func (self *Session) document() string {
	if self.Patient == nil {
		return ""
	}
	return self.Patient.DocumentID
}

// pristine means nothing happened since reset: timeout has nothing to clear.
func (self *Session) pristine(home Notice) bool {
	return self.Screen == ScreenWelcome &&
		self.Flow == FlowNone &&
		self.Patient == nil &&
		self.SelectedFloor == "" &&
		!self.Busy &&
		self.InputError == "" &&
		self.Notice == home
}

type Snapshot struct {
	ID             string
	Screen         Screen
	Flow           Flow
	Patient        *remote.PatientRecord
	SelectedFloor  string
	BackendHealthy bool
	Busy           bool
	Notice         Notice
	InputError     string
	Secretaries    []ui_config.Secretary
	IdleFor        time.Duration
}

func (self *Session) snapshot(secretaries []ui_config.Secretary, idle time.Duration) Snapshot {
	s := Snapshot{
		ID:             self.ID,
		Screen:         self.Screen,
		Flow:           self.Flow,
		SelectedFloor:  self.SelectedFloor,
		BackendHealthy: self.BackendHealthy,
		Busy:           self.Busy,
		Notice:         self.Notice,
		InputError:     self.InputError,
		Secretaries:    append([]ui_config.Secretary(nil), secretaries...),
		IdleFor:        idle,
	}
	if self.Patient != nil {
		p := *self.Patient
		if p.Appointment != nil {
			a := *p.Appointment
			p.Appointment = &a
		}
		s.Patient = &p
	}
	return s
}
