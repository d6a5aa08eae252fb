package remote

import "fmt"

type Kind uint8

const (
	KindInvalid Kind = iota
	KindNotFound
	KindNoAppointment
	KindNetwork
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindNoAppointment:
		return "NoAppointment"
	case KindNetwork:
		return "Network"
	case KindUnknown:
		return "Unknown"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Error is the only error type leaving this package.
type Error struct {
	Kind    Kind
	Message string
	Code    string // server discriminator, e.g. "no_appointment"
	Status  int    // HTTP status, 0 for transport failures

	cause error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("remote %s", e.Kind.String())
	if e.Status != 0 {
		s += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Code != "" {
		s += " code=" + e.Code
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

func (e *Error) Unwrap() error { return e.cause }
func (e *Error) Cause() error  { return e.cause }

// Result is either Value or Err, never both.
type Result[T any] struct {
	Value T
	Err   *Error
}

func (r Result[T]) Ok() bool { return r.Err == nil }

// Kind returns KindInvalid for success.
func (r Result[T]) Kind() Kind {
	if r.Err == nil {
		return KindInvalid
	}
	return r.Err.Kind
}

func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func Fail[T any](kind Kind, message string) Result[T] {
	return Result[T]{Err: &Error{Kind: kind, Message: message}}
}

func failWith[T any](e *Error) Result[T] { return Result[T]{Err: e} }
