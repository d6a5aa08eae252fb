// Terminal front-end for developing kiosk flows without touchscreen.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/c-bata/go-prompt"
	"github.com/coreos/go-systemd/daemon"
	"github.com/hpcguemes/totem/cmd/totem/subcmd"
	"github.com/hpcguemes/totem/helpers/cli"
	"github.com/hpcguemes/totem/internal/remote"
	"github.com/hpcguemes/totem/internal/state"
	"github.com/hpcguemes/totem/internal/ui"
	"github.com/juju/errors"
)

const modName = "console"

var Mod = subcmd.Mod{Name: modName, Main: Main}

// MockMod runs against scripted patient service, see DemoRemote.
var MockMod = subcmd.Mod{Name: modName + "-mock", Main: MockMain}

func Main(ctx context.Context, config *state.Config) error {
	return run(ctx, config, nil)
}

func MockMain(ctx context.Context, config *state.Config) error {
	return run(ctx, config, DemoRemote())
}

func run(ctx context.Context, config *state.Config, client remote.Client) error {
	g := state.GetGlobal(ctx)
	if client != nil {
		g.Remote = client
	}
	g.MustInit(ctx, config)

	r := NewRenderer(os.Stdout)
	kiosk := &ui.UI{}
	if err := kiosk.Init(ctx, r); err != nil {
		return errors.Annotate(err, "ui Init()")
	}
	go kiosk.Loop(ctx)
	subcmd.SdNotify(daemon.SdNotifyReady)

	cli.MainLoop(modName, NewExecutor(kiosk, r), newCompleter(), func() {
		g.Stop()
	})
	g.Alive.Wait()
	return nil
}

// DemoRemote knows two patients: 12345678 with appointment, 87654321 without.
func DemoRemote() *remote.Mock {
	m := remote.NewMock()
	m.Health = remote.Ok(remote.Health{Status: "healthy"})
	m.Confirm = remote.Ok(remote.Ack{Status: "success", Message: "Turno confirmado exitosamente"})
	m.ServiceLog = remote.Ok(remote.Ack{Status: "success", Message: "Solicitud registrada exitosamente"})
	m.SetPatient("12345678", remote.Ok(remote.PatientRecord{
		DocumentID: "12345678",
		FirstName:  "Juan",
		LastName:   "Pérez",
		Appointment: &remote.Appointment{
			Doctor:    "Dra. María González",
			Time:      "10:30",
			Floor:     "PB",
			Specialty: "Cardiología",
			Office:    "12",
		},
	}))
	m.SetPatient("87654321", remote.Fail[remote.PatientRecord](remote.KindNoAppointment, "Usted no cuenta con turno programado"))
	return m
}

type Renderer struct {
	mu   sync.Mutex
	w    io.Writer
	last ui.View
}

func NewRenderer(w io.Writer) *Renderer { return &Renderer{w: w} }

func (self *Renderer) Render(v ui.View) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.last = v
	fmt.Fprint(self.w, FormatView(v))
}

func (self *Renderer) Last() ui.View {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.last
}

func (self *Renderer) Print(s string) {
	self.mu.Lock()
	defer self.mu.Unlock()
	fmt.Fprint(self.w, s)
}

func FormatView(v ui.View) string {
	p := v.Props
	b := &strings.Builder{}
	fmt.Fprintf(b, "\n=== %s ===\n", v.Screen.String())
	if !p.BackendHealthy {
		b.WriteString("(servicio no disponible)\n")
	}
	if !p.Notice.IsZero() {
		fmt.Fprintf(b, "[%s] %s\n", p.Notice.Severity.String(), p.Notice.Text)
	}
	if p.Busy {
		b.WriteString("... procesando\n")
	}
	switch v.Screen {
	case ui.ScreenWelcome:
		b.WriteString("appointment | other\n")
	case ui.ScreenDocumentInput:
		if p.InputError != "" {
			fmt.Fprintf(b, "! %s\n", p.InputError)
		}
		b.WriteString("doc <número> | back\n")
	case ui.ScreenAppointmentConfirmation:
		if p.Patient != nil && p.Patient.Appointment != nil {
			a := p.Patient.Appointment
			fmt.Fprintf(b, "%s %s\n%s %s piso=%s\n", p.Patient.FirstName, p.Patient.LastName, a.Doctor, a.Time, a.Floor)
		}
		b.WriteString("confirm | back\n")
	case ui.ScreenOtherServices:
		for _, s := range p.Secretaries {
			fmt.Fprintf(b, "  %s: %s (piso %s)\n", s.Id, s.Name, s.Floor)
		}
		b.WriteString("service <id> | back\n")
	case ui.ScreenWaiting:
		fmt.Fprintf(b, "diríjase a piso %s\nhome\n", p.SelectedFloor)
	}
	return b.String()
}

// NewExecutor maps console lines to renderer callbacks, same as touchscreen front-end would.
func NewExecutor(kiosk *ui.UI, r *Renderer) cli.ExecFunc {
	cb := kiosk.Callbacks()
	return func(line string) {
		cb.OnActivity()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			return
		}
		arg := ""
		if len(parts) > 1 {
			arg = parts[1]
		}
		switch parts[0] {
		case "appointment":
			cb.OnSelectFlow(ui.FlowAppointment)
		case "other":
			cb.OnSelectFlow(ui.FlowOtherServices)
		case "doc":
			cb.OnSubmitDocument(arg)
		case "confirm":
			cb.OnConfirm()
		case "service":
			cb.OnSelectService(arg)
		case "back":
			cb.OnBack()
		case "home":
			cb.OnGoHome()
		case "reset":
			kiosk.Reset()
		case "show":
			r.Print(FormatView(r.Last()))
		default:
			r.Print(fmt.Sprintf("unknown command=%s\n", parts[0]))
		}
	}
}

func newCompleter() cli.CompleteFunc {
	suggests := []prompt.Suggest{
		{Text: "appointment", Description: "confirmar turno"},
		{Text: "other", Description: "otros servicios"},
		{Text: "doc", Description: "doc <número de documento>"},
		{Text: "confirm", Description: "confirmar turno"},
		{Text: "service", Description: "service <secretaria>"},
		{Text: "back"},
		{Text: "home"},
		{Text: "reset"},
		{Text: "show", Description: "repetir pantalla actual"},
	}
	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
	}
}
