package ui_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/hpcguemes/totem/internal/remote"
	"github.com/hpcguemes/totem/internal/state"
	state_new "github.com/hpcguemes/totem/internal/state/new"
	"github.com/hpcguemes/totem/internal/ui"
	tele_api "github.com/hpcguemes/totem/tele"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const (
	testWait    = 3 * time.Second
	testSilence = 100 * time.Millisecond
	testDoc     = "12345678"
)

type tenv struct {
	ctx   context.Context
	g     *state.Global
	ui    *ui.UI
	mock  *remote.Mock
	clock clockwork.FakeClock
	tele  *recordTele

	views   chan ui.View
	uiState chan ui.Screen
}

// uiTestSetup runs Loop and waits for boot Welcome.
// prepare may script mock before health check.
func uiTestSetup(t testing.TB, conf string, prepare func(*tenv)) *tenv {
	ctx, g, mock, clock := state_new.NewTestContext(t, conf)
	env := &tenv{
		ctx:     ctx,
		g:       g,
		mock:    mock,
		clock:   clock,
		tele:    &recordTele{},
		views:   make(chan ui.View, 64),
		uiState: make(chan ui.Screen, 64),
	}
	g.Tele = env.tele
	if prepare != nil {
		prepare(env)
	}
	env.ui = &ui.UI{
		XXX_testHook: func(s ui.Screen) {
			t.Logf("testHook %s", s.String())
			select {
			case env.uiState <- s:
			default:
				t.Errorf("uiState buffer full, add requireState(%s)", s.String())
			}
		},
	}
	require.NoError(t, env.ui.Init(ctx, ui.RenderFunc(func(v ui.View) { env.views <- v })))
	go env.ui.Loop(ctx)
	env.requireState(t, ui.ScreenWelcome)
	env.requireView(t, ui.ScreenWelcome)
	return env
}

func (env *tenv) requireState(t testing.TB, expect ui.Screen) {
	t.Helper()
	select {
	case s := <-env.uiState:
		require.Equal(t, expect.String(), s.String())
	case <-time.After(testWait):
		t.Fatalf("timeout waiting ui state=%s", expect.String())
	}
}

func (env *tenv) requireNoState(t testing.TB) {
	t.Helper()
	select {
	case s := <-env.uiState:
		t.Fatalf("unexpected ui event processed, state=%s", s.String())
	case <-time.After(testSilence):
	}
}

func (env *tenv) requireView(t testing.TB, expect ui.Screen) ui.View {
	t.Helper()
	select {
	case v := <-env.views:
		require.Equal(t, expect.String(), v.Screen.String())
		require.Equal(t, v.Screen, v.Props.Screen)
		return v
	case <-time.After(testWait):
		t.Fatalf("timeout waiting render screen=%s", expect.String())
	}
	return ui.View{}
}

// requireNoView is valid right after requireState: render precedes test hook.
func (env *tenv) requireNoView(t testing.TB) {
	t.Helper()
	select {
	case v := <-env.views:
		t.Fatalf("unexpected render screen=%s", v.Screen.String())
	default:
	}
}

// step posts action and expects single processed event with optional render.
func (env *tenv) step(t testing.TB, fun func(), expect ui.Screen, render bool) ui.View {
	t.Helper()
	fun()
	env.requireState(t, expect)
	if !render {
		env.requireNoView(t)
		return ui.View{}
	}
	return env.requireView(t, expect)
}

// remoteStep is action which issues remote call: busy render, then reply.
func (env *tenv) remoteStep(t testing.TB, fun func(), from, to ui.Screen) ui.View {
	t.Helper()
	busy := env.step(t, fun, from, true)
	require.True(t, busy.Props.Busy)
	env.requireState(t, to)
	v := env.requireView(t, to)
	require.False(t, v.Props.Busy)
	return v
}

func (env *tenv) toDocumentInput(t testing.TB, flow ui.Flow) {
	t.Helper()
	v := env.step(t, func() { env.ui.SelectFlow(flow) }, ui.ScreenDocumentInput, true)
	require.Equal(t, flow, v.Props.Flow)
}

func appointmentPatient(floor string) remote.Result[remote.PatientRecord] {
	return remote.Ok(remote.PatientRecord{
		DocumentID: testDoc,
		FirstName:  "Ana",
		LastName:   "Pérez",
		Appointment: &remote.Appointment{
			Doctor:    "Dr. Lopez",
			Time:      "10:30",
			Floor:     floor,
			Specialty: "Cardiología",
		},
	})
}

type recordTele struct {
	tele_api.Noop
	mu     sync.Mutex
	states []tele_api.State
	events []tele_api.Event
	stat   tele_api.Stat
}

func (self *recordTele) State(s tele_api.State) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.states = append(self.states, s)
}

func (self *recordTele) Event(e tele_api.Event) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.events = append(self.events, e)
}

func (self *recordTele) StatModify(fun func(*tele_api.Stat)) {
	self.stat.Lock()
	defer self.stat.Unlock()
	fun(&self.stat)
}

func (self *recordTele) Events() []tele_api.Event {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]tele_api.Event(nil), self.events...)
}

func (self *recordTele) States() []tele_api.State {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]tele_api.State(nil), self.states...)
}

func (self *recordTele) Stat() tele_api.Stat_Counters {
	self.stat.Lock()
	defer self.stat.Unlock()
	return *self.stat.Locked_Copy()
}

func (self *recordTele) JSON(t testing.TB) string {
	b, err := json.Marshal(self.Events())
	require.NoError(t, err)
	return string(b)
}
