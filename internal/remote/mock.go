package remote

import (
	"context"
	"sync"
)

const (
	OpCheckHealth       = "health"
	OpFindPatient       = "find-patient"
	OpConfirm           = "confirm"
	OpLogServiceRequest = "service-log"
)

type MockCall struct {
	Op   string
	Args []string
}

// Mock is scripted Client for tests and offline console.
// Unknown documents resolve to KindNotFound.
// Non-nil Gate blocks every call until a value is received or ctx is done.
// Change fields with Set* methods once the mock is shared with running code.
type Mock struct {
	Health     Result[Health]
	Patients   map[string]Result[PatientRecord]
	Confirm    Result[Ack]
	ServiceLog Result[Ack]
	Gate       chan struct{}

	mu    sync.Mutex
	calls []MockCall
}

var _ Client = &Mock{} // compile-time interface test

func NewMock() *Mock {
	return &Mock{Patients: make(map[string]Result[PatientRecord])}
}

func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

func (m *Mock) CallCount(op string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (m *Mock) CheckHealth(ctx context.Context) Result[Health] {
	if e := m.enter(ctx, OpCheckHealth); e != nil {
		return failWith[Health](e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Health
}

func (m *Mock) FindPatientByDocument(ctx context.Context, documentID string) Result[PatientRecord] {
	if e := m.enter(ctx, OpFindPatient, documentID); e != nil {
		return failWith[PatientRecord](e)
	}
	m.mu.Lock()
	r, ok := m.Patients[documentID]
	m.mu.Unlock()
	if !ok {
		return failWith[PatientRecord](&Error{Kind: KindNotFound, Status: 404, Code: detailNoPatientRecord})
	}
	return r
}

func (m *Mock) ConfirmAppointment(ctx context.Context, documentID string) Result[Ack] {
	if e := m.enter(ctx, OpConfirm, documentID); e != nil {
		return failWith[Ack](e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Confirm
}

func (m *Mock) LogServiceRequest(ctx context.Context, documentID, secretaryID, floor string) Result[Ack] {
	if e := m.enter(ctx, OpLogServiceRequest, documentID, secretaryID, floor); e != nil {
		return failWith[Ack](e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ServiceLog
}

func (m *Mock) SetPatient(documentID string, r Result[PatientRecord]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Patients == nil {
		m.Patients = make(map[string]Result[PatientRecord])
	}
	m.Patients[documentID] = r
}

func (m *Mock) SetConfirm(r Result[Ack]) {
	m.mu.Lock()
	m.Confirm = r
	m.mu.Unlock()
}

func (m *Mock) SetServiceLog(r Result[Ack]) {
	m.mu.Lock()
	m.ServiceLog = r
	m.mu.Unlock()
}

// SetGate with nil releases future calls. Calls already waiting on old gate stay blocked.
func (m *Mock) SetGate(gate chan struct{}) {
	m.mu.Lock()
	m.Gate = gate
	m.mu.Unlock()
}

func (m *Mock) enter(ctx context.Context, op string, args ...string) *Error {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Op: op, Args: args})
	gate := m.Gate
	m.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return &Error{Kind: KindNetwork, Message: ctx.Err().Error(), cause: ctx.Err()}
	}
}
