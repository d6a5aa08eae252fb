package types

import "fmt"

type EventKind uint8

const (
	EventInvalid EventKind = iota
	EventInput             // physical input activity
	EventAction            // renderer callback
	EventReply             // remote service reply
	EventTime              // inactivity timeout
	EventStop
)

func (k EventKind) String() string {
	switch k {
	case EventInvalid:
		return "Invalid"
	case EventInput:
		return "Input"
	case EventAction:
		return "Action"
	case EventReply:
		return "Reply"
	case EventTime:
		return "Time"
	case EventStop:
		return "Stop"
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

type ActionKind uint8

const (
	ActionInvalid ActionKind = iota
	ActionSelectFlow
	ActionSubmitDocument
	ActionConfirm
	ActionSelectService
	ActionBack
	ActionGoHome
	ActionActivity
	ActionReset
)

func (k ActionKind) String() string {
	switch k {
	case ActionInvalid:
		return "Invalid"
	case ActionSelectFlow:
		return "SelectFlow"
	case ActionSubmitDocument:
		return "SubmitDocument"
	case ActionConfirm:
		return "Confirm"
	case ActionSelectService:
		return "SelectService"
	case ActionBack:
		return "Back"
	case ActionGoHome:
		return "GoHome"
	case ActionActivity:
		return "Activity"
	case ActionReset:
		return "Reset"
	}
	return fmt.Sprintf("ActionKind(%d)", uint8(k))
}

type Action struct {
	Kind ActionKind
	Arg  string
}

type Event struct {
	Input  InputEvent
	Action Action
	Reply  interface{} // concrete type is known to receiver
	Seq    uint64      // EventTime: timer generation; EventReply: session epoch
	Kind   EventKind
}

// String never includes Action.Arg: it may carry patient document.
func (e *Event) String() string {
	inner := ""
	switch e.Kind {
	case EventInput:
		inner = fmt.Sprintf(" source=%s key=%v up=%t", e.Input.Source, e.Input.Key, e.Input.Up)
	case EventAction:
		inner = " action=" + e.Action.Kind.String()
	case EventReply:
		inner = fmt.Sprintf(" epoch=%d reply=%T", e.Seq, e.Reply)
	case EventTime:
		inner = fmt.Sprintf(" gen=%d", e.Seq)
	}
	return fmt.Sprintf("Event(%s%s)", e.Kind.String(), inner)
}

type InputKey uint16

type InputEvent struct {
	Source string
	Key    InputKey
	Up     bool
}

func (e *InputEvent) IsZero() bool  { return e.Source == "" && e.Key == 0 }
func (e *InputEvent) IsDigit() bool { return e.Key >= '0' && e.Key <= '9' }
