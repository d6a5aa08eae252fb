package ui_config

type Secretary struct {
	Id    string `hcl:"id,key"`
	Name  string `hcl:"name"`
	Floor string `hcl:"floor"`
}

type Config struct { //nolint:maligned
	ResetTimeoutSec int         `hcl:"reset_sec"`
	DocumentMinLen  int         `hcl:"document_min_len"` // digits
	DocumentMaxLen  int         `hcl:"document_max_len"`
	Secretaries     []Secretary `hcl:"secretary"`

	MsgDocumentEmpty    string `hcl:"msg_document_empty"`
	MsgDocumentTooShort string `hcl:"msg_document_too_short"`
	MsgDocumentTooLong  string `hcl:"msg_document_too_long"`
	MsgNoAppointment    string `hcl:"msg_no_appointment"`
	MsgLookupFailed     string `hcl:"msg_lookup_failed"`
	MsgConfirmed        string `hcl:"msg_confirmed"`
	MsgConfirmFailed    string `hcl:"msg_confirm_failed"`
	MsgServiceLogged    string `hcl:"msg_service_logged"` // %s = secretary name
	MsgServiceFailed    string `hcl:"msg_service_failed"`
	MsgWait             string `hcl:"msg_wait"`
	MsgDegraded         string `hcl:"msg_degraded"`
}

func (self *Config) Secretary(id string) (Secretary, bool) {
	for _, s := range self.Secretaries {
		if s.Id == id {
			return s, true
		}
	}
	return Secretary{}, false
}
