package ui_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/hpcguemes/totem/internal/remote"
	state_new "github.com/hpcguemes/totem/internal/state/new"
	"github.com/hpcguemes/totem/internal/types"
	"github.com/hpcguemes/totem/internal/ui"
	tele_api "github.com/hpcguemes/totem/tele"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentConfirmedThenTimeout(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", func(env *tenv) {
		env.mock.SetPatient(testDoc, appointmentPatient("PB"))
	})
	welcome := env.ui.Snapshot()
	assert.True(t, welcome.BackendHealthy)
	assert.Equal(t, ui.FlowNone, welcome.Flow)

	env.toDocumentInput(t, ui.FlowAppointment)
	v := env.remoteStep(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, ui.ScreenAppointmentConfirmation)
	require.NotNil(t, v.Props.Patient)
	require.NotNil(t, v.Props.Patient.Appointment)
	assert.Equal(t, "PB", v.Props.Patient.Appointment.Floor)
	assert.Equal(t, "Ana", v.Props.Patient.FirstName)
	assert.Equal(t, 1, env.mock.CallCount(remote.OpFindPatient))

	// renderer callbacks are the same operations
	v = env.remoteStep(t, v.Callbacks.OnConfirm, ui.ScreenAppointmentConfirmation, ui.ScreenWaiting)
	assert.Equal(t, "PB", v.Props.SelectedFloor)
	assert.Equal(t, ui.Notice{Text: "Su turno ha sido confirmado exitosamente.", Severity: ui.SeverityInfo}, v.Props.Notice)
	assert.Equal(t, []remote.MockCall{
		{Op: remote.OpCheckHealth},
		{Op: remote.OpFindPatient, Args: []string{testDoc}},
		{Op: remote.OpConfirm, Args: []string{testDoc}},
	}, env.mock.Calls())
	waitingID := v.Props.ID
	assert.Equal(t, welcome.ID, waitingID, "same session until reset")

	env.clock.Advance(29 * time.Second)
	env.requireNoState(t)
	env.clock.Advance(time.Second)
	env.requireState(t, ui.ScreenWelcome)
	v = env.requireView(t, ui.ScreenWelcome)
	assert.NotEqual(t, waitingID, v.Props.ID)
	assert.Equal(t, ui.FlowNone, v.Props.Flow)
	assert.Nil(t, v.Props.Patient)
	assert.Equal(t, "", v.Props.SelectedFloor)
	assert.True(t, v.Props.Notice.IsZero())
	assert.True(t, v.Props.BackendHealthy, "health is terminal property")
	assert.Equal(t, ui.ScreenWelcome, env.ui.Screen())

	stat := env.tele.Stat()
	assert.Equal(t, uint32(1), stat.Sessions)
	assert.Equal(t, uint32(1), stat.Confirmed)
	assert.Equal(t, uint32(1), stat.Timeouts)
	assert.Equal(t, map[string]uint32{"Ok": 1}, stat.Lookup)
	assert.Equal(t, []tele_api.State{tele_api.State_Boot, tele_api.State_Nominal}, env.tele.States())
	assert.NotContains(t, env.tele.JSON(t), testDoc)
	assert.NotContains(t, env.tele.JSON(t), "Ana")
	events := env.tele.Events()
	require.Len(t, events, 4)
	assert.Equal(t, tele_api.Event{Session: waitingID, Name: tele_api.EventReset, Outcome: "timeout"}, events[3])
}

func TestNoAppointmentRoutesToOtherServices(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", func(env *tenv) {
		env.mock.SetPatient(testDoc, remote.Fail[remote.PatientRecord](remote.KindNoAppointment, "Usted no cuenta con turno programado"))
	})
	env.toDocumentInput(t, ui.FlowAppointment)
	v := env.remoteStep(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, ui.ScreenOtherServices)
	assert.Equal(t, &remote.PatientRecord{DocumentID: testDoc}, v.Props.Patient)
	assert.Equal(t, ui.Notice{
		Text:     "Paciente no cuenta con turno programado. Por favor elegir y dirigirse a la secretaria correspondiente.",
		Severity: ui.SeverityInfo,
	}, v.Props.Notice)
	require.Len(t, v.Props.Secretaries, 4)
	assert.Equal(t, "pb", v.Props.Secretaries[0].Id)
}

func TestLookupErrorsNeverDeadEnd(t *testing.T) {
	t.Parallel()

	type Case struct {
		kind   remote.Kind
		flow   ui.Flow
		notice string
	}
	const msgNoAppointment = "no turno"
	const msgFailed = "consulta fallida"
	cases := []Case{
		{remote.KindNotFound, ui.FlowAppointment, msgNoAppointment},
		{remote.KindNoAppointment, ui.FlowAppointment, msgNoAppointment},
		{remote.KindNetwork, ui.FlowAppointment, msgFailed},
		{remote.KindUnknown, ui.FlowAppointment, msgFailed},
		{remote.KindNotFound, ui.FlowOtherServices, ""},
		{remote.KindNetwork, ui.FlowOtherServices, msgFailed},
	}
	for _, c := range cases {
		c := c
		t.Run(fmt.Sprintf("%s/%s", c.flow.String(), c.kind.String()), func(t *testing.T) {
			t.Parallel()
			env := uiTestSetup(t, fmt.Sprintf(`ui { msg_no_appointment = "%s" msg_lookup_failed = "%s" }`, msgNoAppointment, msgFailed),
				func(env *tenv) {
					env.mock.SetPatient(testDoc, remote.Fail[remote.PatientRecord](c.kind, "x"))
				})
			env.toDocumentInput(t, c.flow)
			v := env.remoteStep(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, ui.ScreenOtherServices)
			assert.Equal(t, testDoc, v.Props.Patient.DocumentID)
			assert.Equal(t, c.notice, v.Props.Notice.Text)
			assert.Equal(t, ui.SeverityInfo, v.Props.Notice.Severity)
			assert.Equal(t, 1, env.mock.CallCount(remote.OpFindPatient))
			assert.Equal(t, map[string]uint32{c.kind.String(): 1}, env.tele.Stat().Lookup)
		})
	}
}

func TestOtherServicesFlowWithAppointment(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", func(env *tenv) {
		env.mock.SetPatient(testDoc, appointmentPatient("PB"))
	})
	env.toDocumentInput(t, ui.FlowOtherServices)
	v := env.remoteStep(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, ui.ScreenOtherServices)
	assert.Equal(t, &remote.PatientRecord{DocumentID: testDoc}, v.Props.Patient)
	assert.True(t, v.Props.Notice.IsZero())
}

func TestDocumentValidation(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", nil)
	env.toDocumentInput(t, ui.FlowOtherServices)

	cases := []struct {
		input  string
		expect string
	}{
		{"123456", "El número de documento debe tener al menos 7 dígitos"},
		{"   ", "Por favor ingrese su número de documento"},
		{"abc-defg-hijk", "El número de documento debe tener al menos 7 dígitos"},
		{"12.345-6", "El número de documento debe tener al menos 7 dígitos"},
		{"12345678901", "El número de documento debe tener como máximo 10 dígitos"},
		{"1234.5678.901", "El número de documento debe tener como máximo 10 dígitos"},
	}
	for _, c := range cases {
		v := env.step(t, func() { env.ui.SubmitDocument(c.input) }, ui.ScreenDocumentInput, true)
		assert.Equal(t, c.expect, v.Props.InputError, "input=%q", c.input)
		assert.False(t, v.Props.Busy)
		assert.Nil(t, v.Props.Patient)
	}
	assert.Equal(t, 0, env.mock.CallCount(remote.OpFindPatient))

	// separators dropped, unknown document is NotFound
	v := env.remoteStep(t, func() { env.ui.SubmitDocument(" 12.345.678-9 ") }, ui.ScreenDocumentInput, ui.ScreenOtherServices)
	assert.Equal(t, "", v.Props.InputError)
	assert.Equal(t, "123456789", v.Props.Patient.DocumentID)
	assert.Equal(t, []remote.MockCall{{Op: remote.OpFindPatient, Args: []string{"123456789"}}}, env.mock.Calls()[1:])
}

func TestDocumentMinLenConfig(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, `ui { document_min_len = 9 document_max_len = 9 msg_document_too_short = "min %d" msg_document_too_long = "max %d" }`, nil)
	env.toDocumentInput(t, ui.FlowAppointment)
	v := env.step(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, true)
	assert.Equal(t, "min 9", v.Props.InputError)
	v = env.step(t, func() { env.ui.SubmitDocument("1234567890") }, ui.ScreenDocumentInput, true)
	assert.Equal(t, "max 9", v.Props.InputError)
	assert.Equal(t, 0, env.mock.CallCount(remote.OpFindPatient))
}

func TestDocumentLenConfigInvalid(t *testing.T) {
	t.Parallel()

	ctx, _, _, _ := state_new.NewTestContext(t, `ui { document_min_len = 8 document_max_len = 6 }`)
	err := (&ui.UI{}).Init(ctx, ui.RenderFunc(func(ui.View) {}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document_max_len=6")
}

func TestInactivityRearm(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", nil)
	env.toDocumentInput(t, ui.FlowAppointment)

	env.clock.Advance(29 * time.Second)
	env.step(t, env.ui.Activity, ui.ScreenDocumentInput, false)
	env.clock.Advance(29 * time.Second)
	env.requireNoState(t)

	// physical input counts too
	env.g.Input.Emit(types.InputEvent{Source: "test", Key: '1'})
	env.requireState(t, ui.ScreenDocumentInput)
	env.requireNoView(t)
	env.clock.Advance(29 * time.Second)
	env.requireNoState(t)

	env.clock.Advance(time.Second)
	env.requireState(t, ui.ScreenWelcome)
	env.requireView(t, ui.ScreenWelcome)
}

func TestResetTimeoutConfig(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, `ui { reset_sec = 5 }`, nil)
	env.toDocumentInput(t, ui.FlowOtherServices)
	env.clock.Advance(5 * time.Second)
	env.requireState(t, ui.ScreenWelcome)
	env.requireView(t, ui.ScreenWelcome)
}

func TestPristineWelcomeTimeout(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", nil)
	before := env.ui.Snapshot()
	for i := 0; i < 3; i++ {
		env.clock.Advance(30 * time.Second)
		env.requireState(t, ui.ScreenWelcome)
		env.requireNoView(t)
		after := env.ui.Snapshot()
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, before.Screen, after.Screen)
		assert.Equal(t, before.Flow, after.Flow)
		assert.Nil(t, after.Patient)
		// re-arm
		env.step(t, env.ui.Activity, ui.ScreenWelcome, false)
	}
	assert.Empty(t, env.tele.Events())
	assert.Equal(t, uint32(0), env.tele.Stat().Timeouts)
}

func TestBackRoundTrip(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", func(env *tenv) {
		env.mock.SetPatient(testDoc, appointmentPatient("2"))
	})
	id := env.ui.Snapshot().ID

	// back on Welcome is ignored
	env.step(t, env.ui.Back, ui.ScreenWelcome, false)

	env.toDocumentInput(t, ui.FlowAppointment)
	v := env.step(t, env.ui.Back, ui.ScreenWelcome, true)
	assert.Equal(t, ui.FlowNone, v.Props.Flow)
	assert.Equal(t, id, v.Props.ID)
	// Welcome after back is pristine
	env.clock.Advance(30 * time.Second)
	env.requireState(t, ui.ScreenWelcome)
	env.requireNoView(t)

	env.toDocumentInput(t, ui.FlowAppointment)
	env.remoteStep(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, ui.ScreenAppointmentConfirmation)
	v = env.step(t, env.ui.Back, ui.ScreenDocumentInput, true)
	assert.Nil(t, v.Props.Patient)
	assert.Equal(t, ui.FlowAppointment, v.Props.Flow)

	// actions invalid for current screen are ignored
	env.step(t, env.ui.Confirm, ui.ScreenDocumentInput, false)
	env.step(t, func() { env.ui.SelectService("pb") }, ui.ScreenDocumentInput, false)
	env.step(t, func() { env.ui.SelectFlow(ui.FlowOtherServices) }, ui.ScreenDocumentInput, false)
	assert.Equal(t, 0, env.mock.CallCount(remote.OpConfirm))

	// home from confirmation and from services starts new session
	env.remoteStep(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, ui.ScreenAppointmentConfirmation)
	v = env.step(t, env.ui.GoHome, ui.ScreenWelcome, true)
	assert.Nil(t, v.Props.Patient)
	assert.Equal(t, ui.FlowNone, v.Props.Flow)
	assert.NotEqual(t, id, v.Props.ID)
	id2 := v.Props.ID

	env.toDocumentInput(t, ui.FlowOtherServices)
	env.remoteStep(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, ui.ScreenOtherServices)
	v = env.step(t, env.ui.GoHome, ui.ScreenWelcome, true)
	assert.Nil(t, v.Props.Patient)
	assert.NotEqual(t, id2, v.Props.ID)

	// home on pristine Welcome is ignored
	env.step(t, env.ui.GoHome, ui.ScreenWelcome, false)
	assert.Equal(t, v.Props.ID, env.ui.Snapshot().ID)
	assert.Equal(t, 0, env.mock.CallCount(remote.OpConfirm))
	assert.Equal(t, 0, env.mock.CallCount(remote.OpLogServiceRequest))
}

func TestBusyIgnoresActions(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", nil)
	gate := make(chan struct{})
	env.mock.SetGate(gate)
	env.toDocumentInput(t, ui.FlowAppointment)

	busy := env.step(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, true)
	require.True(t, busy.Props.Busy)
	env.step(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, false)
	env.step(t, env.ui.Back, ui.ScreenDocumentInput, false)
	env.step(t, env.ui.GoHome, ui.ScreenDocumentInput, false)
	require.Eventually(t, func() bool { return env.mock.CallCount(remote.OpFindPatient) == 1 }, testWait, time.Millisecond)
	assert.True(t, env.ui.Snapshot().Busy)

	// ignored actions still count as presence
	env.clock.Advance(20 * time.Second)
	env.step(t, env.ui.Back, ui.ScreenDocumentInput, false)
	env.clock.Advance(20 * time.Second)
	env.requireNoState(t)

	gate <- struct{}{}
	env.requireState(t, ui.ScreenOtherServices)
	v := env.requireView(t, ui.ScreenOtherServices)
	assert.False(t, v.Props.Busy)
	assert.Equal(t, 1, env.mock.CallCount(remote.OpFindPatient))
}

func TestTimeoutDropsInflightReply(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", func(env *tenv) {
		env.mock.SetPatient(testDoc, appointmentPatient("PB"))
	})
	gate := make(chan struct{})
	env.mock.SetGate(gate)
	env.toDocumentInput(t, ui.FlowAppointment)
	env.step(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, true)
	require.Eventually(t, func() bool { return env.mock.CallCount(remote.OpFindPatient) == 1 }, testWait, time.Millisecond)

	env.clock.Advance(30 * time.Second)
	env.requireState(t, ui.ScreenWelcome)
	v := env.requireView(t, ui.ScreenWelcome)
	assert.False(t, v.Props.Busy, "timeout wins over busy")

	gate <- struct{}{}
	env.requireNoState(t)
	assert.Equal(t, ui.ScreenWelcome, env.ui.Screen())
	assert.Nil(t, env.ui.Snapshot().Patient)

	// new session works
	env.mock.SetGate(nil)
	env.toDocumentInput(t, ui.FlowAppointment)
	env.remoteStep(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, ui.ScreenAppointmentConfirmation)
}

func TestConfirmFailureStays(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", func(env *tenv) {
		env.mock.SetPatient(testDoc, appointmentPatient("3"))
		env.mock.SetConfirm(remote.Fail[remote.Ack](remote.KindNetwork, "connection refused"))
	})
	env.toDocumentInput(t, ui.FlowAppointment)
	env.remoteStep(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, ui.ScreenAppointmentConfirmation)
	v := env.remoteStep(t, env.ui.Confirm, ui.ScreenAppointmentConfirmation, ui.ScreenAppointmentConfirmation)
	assert.Equal(t, ui.Notice{Text: "No se pudo confirmar el turno. Intente nuevamente.", Severity: ui.SeverityDestructive}, v.Props.Notice)
	assert.Equal(t, "", v.Props.SelectedFloor)

	env.mock.SetConfirm(remote.Ok(remote.Ack{Status: "success"}))
	v = env.remoteStep(t, env.ui.Confirm, ui.ScreenAppointmentConfirmation, ui.ScreenWaiting)
	assert.Equal(t, "3", v.Props.SelectedFloor)
	assert.Equal(t, 2, env.mock.CallCount(remote.OpConfirm))

	v = env.step(t, env.ui.GoHome, ui.ScreenWelcome, true)
	assert.Nil(t, v.Props.Patient)
	events := env.tele.Events()
	assert.Equal(t, "reset", events[len(events)-1].Name)
	assert.Equal(t, "home", events[len(events)-1].Outcome)
}

func TestSelectService(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", func(env *tenv) {
		env.mock.SetServiceLog(remote.Fail[remote.Ack](remote.KindUnknown, "Error interno al registrar solicitud"))
	})
	env.toDocumentInput(t, ui.FlowOtherServices)
	env.remoteStep(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, ui.ScreenOtherServices)

	env.step(t, func() { env.ui.SelectService("9x") }, ui.ScreenOtherServices, false)
	assert.Equal(t, 0, env.mock.CallCount(remote.OpLogServiceRequest))

	v := env.remoteStep(t, func() { env.ui.SelectService("2p") }, ui.ScreenOtherServices, ui.ScreenOtherServices)
	assert.Equal(t, ui.SeverityDestructive, v.Props.Notice.Severity)

	env.mock.SetServiceLog(remote.Ok(remote.Ack{Status: "success"}))
	v = env.remoteStep(t, func() { v.Callbacks.OnSelectService("2p") }, ui.ScreenOtherServices, ui.ScreenWaiting)
	assert.Equal(t, "2", v.Props.SelectedFloor)
	assert.Equal(t, ui.Notice{Text: "Su solicitud para Segundo Piso ha sido registrada.", Severity: ui.SeverityInfo}, v.Props.Notice)
	calls := env.mock.Calls()
	assert.Equal(t, remote.MockCall{Op: remote.OpLogServiceRequest, Args: []string{testDoc, "2p", "2"}}, calls[len(calls)-1])
	assert.Equal(t, uint32(1), env.tele.Stat().Routed)

	// back from Waiting is full reset
	v = env.step(t, env.ui.Back, ui.ScreenWelcome, true)
	assert.Equal(t, ui.FlowNone, v.Props.Flow)
	assert.Equal(t, "", v.Props.SelectedFloor)
}

func TestSecretaryConfig(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, `ui {
	secretary "guardia" { name = "Guardia" floor = "PB" }
}`, nil)
	env.toDocumentInput(t, ui.FlowOtherServices)
	v := env.remoteStep(t, func() { env.ui.SubmitDocument(testDoc) }, ui.ScreenDocumentInput, ui.ScreenOtherServices)
	require.Len(t, v.Props.Secretaries, 1)
	env.step(t, func() { env.ui.SelectService("pb") }, ui.ScreenOtherServices, false)
	v = env.remoteStep(t, func() { env.ui.SelectService("guardia") }, ui.ScreenOtherServices, ui.ScreenWaiting)
	assert.Equal(t, "PB", v.Props.SelectedFloor)
}

func TestHealthDegraded(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, `ui { msg_degraded = "offline" }`, func(env *tenv) {
		env.mock.Health = remote.Fail[remote.Health](remote.KindNetwork, "connection refused")
	})
	snap := env.ui.Snapshot()
	assert.False(t, snap.BackendHealthy)
	assert.Equal(t, ui.Notice{Text: "offline", Severity: ui.SeverityDestructive}, snap.Notice)
	assert.Equal(t, []tele_api.State{tele_api.State_Boot, tele_api.State_Degraded}, env.tele.States())

	// degraded Welcome is still pristine
	env.clock.Advance(30 * time.Second)
	env.requireState(t, ui.ScreenWelcome)
	env.requireNoView(t)

	env.toDocumentInput(t, ui.FlowAppointment)
	v := env.ui.Snapshot()
	assert.True(t, v.Notice.IsZero())
	v2 := env.step(t, env.ui.Reset, ui.ScreenWelcome, true)
	assert.False(t, v2.Props.BackendHealthy)
	assert.Equal(t, "offline", v2.Props.Notice.Text)
}

func TestHealthUnhealthyStatus(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", func(env *tenv) {
		env.mock.Health = remote.Ok(remote.Health{Status: "degraded"})
	})
	assert.False(t, env.ui.Snapshot().BackendHealthy)
}

func TestStop(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", nil)
	env.g.Alive.Stop()
	env.requireState(t, ui.ScreenStop)
	assert.Equal(t, ui.ScreenStop, env.ui.Screen())
	// post after stop does not block
	env.ui.SubmitDocument(testDoc)
	env.ui.Activity()
}

func TestInitRequiresRenderer(t *testing.T) {
	t.Parallel()

	env := uiTestSetup(t, "", nil)
	err := new(ui.UI).Init(env.ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer")
}

func TestFlowString(t *testing.T) {
	t.Parallel()

	for _, f := range []ui.Flow{ui.FlowAppointment, ui.FlowOtherServices} {
		parsed, ok := ui.ParseFlow(f.String())
		assert.True(t, ok)
		assert.Equal(t, f, parsed)
	}
	_, ok := ui.ParseFlow("none")
	assert.False(t, ok)
	assert.Equal(t, "Flow(9)", ui.Flow(9).String())
	assert.Equal(t, "Screen(99)", ui.Screen(99).String())
}
