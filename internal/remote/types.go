package remote

import "strings"

type Health struct {
	Status string `json:"status"`
}

func (h Health) Healthy() bool {
	switch strings.ToLower(h.Status) {
	case "", "ok", "healthy", "up":
		return true
	}
	return false
}

type Appointment struct {
	Doctor    string `json:"medico"`
	Time      string `json:"hora"`
	Floor     string `json:"piso"`
	Date      string `json:"fecha,omitempty"`
	Specialty string `json:"especialidad,omitempty"`
	Office    string `json:"consultorio,omitempty"`
	Confirmed bool   `json:"confirmado,omitempty"`
}

type PatientRecord struct {
	DocumentID  string       `json:"documento"`
	FirstName   string       `json:"nombre"`
	LastName    string       `json:"apellido"`
	Appointment *Appointment `json:"turno,omitempty"`
}

func (p PatientRecord) HasAppointment() bool {
	return p.Appointment != nil && p.Appointment.Doctor != ""
}

type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type lookupResponse struct {
	Status string         `json:"status"`
	Data   *PatientRecord `json:"data"`
}

type confirmRequest struct {
	Document  string `json:"documento"`
	Confirmed bool   `json:"confirmado"`
}

type serviceLogRequest struct {
	Document  string `json:"documento"`
	Secretary string `json:"secretaria"`
	Floor     string `json:"piso"`
}

// errorDetail is FastAPI style {"detail": {...}} or legacy {"detail": "text"}.
type errorDetail struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
	Code     string `json:"code"`
}

const (
	detailNoPatientRecord = "no_patient_record"
	detailNoAppointment   = "no_appointment"
)
