// Package remote talks to the hospital patient service.
//
// Client contract:
// - every call is single request/response bounded by config timeout, no retries
// - every outcome is a Result; nothing panics or returns raw transport errors past this package
// - transport failure (timeout, refused, malformed body) = KindNetwork
// - 404 with detail discriminator = KindNotFound or KindNoAppointment
// - any other error status or uninterpretable payload = KindUnknown
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hpcguemes/totem/helpers"
	remote_config "github.com/hpcguemes/totem/internal/remote/config"
	"github.com/hpcguemes/totem/log2"
	"github.com/juju/errors"
)

const (
	DefaultBaseURL = "http://localhost:8001/api"
	DefaultTimeout = 10 * time.Second

	maxBodySize = 1 << 20
)

type Client interface {
	CheckHealth(ctx context.Context) Result[Health]
	FindPatientByDocument(ctx context.Context, documentID string) Result[PatientRecord]
	ConfirmAppointment(ctx context.Context, documentID string) Result[Ack]
	LogServiceRequest(ctx context.Context, documentID, secretaryID, floor string) Result[Ack]
}

type HTTPClient struct {
	base    string
	timeout time.Duration
	hc      *http.Client
	log     *log2.Log
}

var _ Client = &HTTPClient{} // compile-time interface test

// NewHTTPClient with nil transport uses http.DefaultTransport.
func NewHTTPClient(config remote_config.Config, log *log2.Log, transport http.RoundTripper) (*HTTPClient, error) {
	base := config.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Annotatef(err, "remote base_url=%s", base)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NotValidf("remote base_url=%s scheme", base)
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	if config.LogDebug {
		log = log.Clone(log2.LDebug)
	}
	return &HTTPClient{
		base:    strings.TrimRight(base, "/"),
		timeout: helpers.IntSecondDefault(config.TimeoutSec, DefaultTimeout),
		hc:      &http.Client{Transport: transport},
		log:     log,
	}, nil
}

func (self *HTTPClient) CheckHealth(ctx context.Context) (result Result[Health]) {
	defer recoverResult(&result, "health")

	resp, rerr := self.do(ctx, http.MethodGet, "/health", nil)
	if rerr != nil {
		return failWith[Health](rerr)
	}
	if !resp.success() {
		return failWith[Health](resp.unexpected())
	}
	var h Health
	if len(resp.body) != 0 {
		if err := json.Unmarshal(resp.body, &h); err != nil {
			return failWith[Health](malformed(resp, err))
		}
	}
	if !h.Healthy() {
		return Fail[Health](KindUnknown, fmt.Sprintf("health status=%s", h.Status))
	}
	return Ok(h)
}

func (self *HTTPClient) FindPatientByDocument(ctx context.Context, documentID string) (result Result[PatientRecord]) {
	defer recoverResult(&result, "find patient")

	resp, rerr := self.do(ctx, http.MethodGet, "/patients/"+url.PathEscape(documentID), nil)
	if rerr != nil {
		return failWith[PatientRecord](rerr)
	}
	switch {
	case resp.success():
		var lr lookupResponse
		if err := json.Unmarshal(resp.body, &lr); err != nil {
			return failWith[PatientRecord](malformed(resp, err))
		}
		if lr.Status != "success" || lr.Data == nil {
			return Fail[PatientRecord](KindUnknown, fmt.Sprintf("unexpected lookup response status=%s", lr.Status))
		}
		if !lr.Data.HasAppointment() {
			e := &Error{Kind: KindNoAppointment, Status: resp.status, Message: "patient has no appointment"}
			return failWith[PatientRecord](e)
		}
		return Ok(*lr.Data)

	case resp.status == http.StatusNotFound:
		return failWith[PatientRecord](resp.notFound())

	default:
		return failWith[PatientRecord](resp.unexpected())
	}
}

func (self *HTTPClient) ConfirmAppointment(ctx context.Context, documentID string) (result Result[Ack]) {
	defer recoverResult(&result, "confirm appointment")

	req := confirmRequest{Document: documentID, Confirmed: true}
	resp, rerr := self.do(ctx, http.MethodPost, "/patients/confirm", req)
	if rerr != nil {
		return failWith[Ack](rerr)
	}
	return resp.ack()
}

func (self *HTTPClient) LogServiceRequest(ctx context.Context, documentID, secretaryID, floor string) (result Result[Ack]) {
	defer recoverResult(&result, "log service request")

	req := serviceLogRequest{Document: documentID, Secretary: secretaryID, Floor: floor}
	resp, rerr := self.do(ctx, http.MethodPost, "/services/log", req)
	if rerr != nil {
		return failWith[Ack](rerr)
	}
	return resp.ack()
}

type response struct {
	status int
	body   []byte
}

func (self *HTTPClient) do(ctx context.Context, method, path string, reqBody interface{}) (*response, *Error) {
	ctx, cancel := context.WithTimeout(ctx, self.timeout)
	defer cancel()

	var bodyReader io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, &Error{Kind: KindUnknown, Message: "encode request", cause: errors.Trace(err)}
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, self.base+path, bodyReader)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "build request", cause: errors.Trace(err)}
	}
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	tbegin := time.Now()
	resp, err := self.hc.Do(req)
	if err != nil {
		err = errors.Annotatef(err, "%s %s", method, path)
		self.log.Debugf("remote %s %s err=%v", method, path, err)
		return nil, &Error{Kind: KindNetwork, Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		err = errors.Annotatef(err, "%s %s read body", method, path)
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: err.Error(), cause: err}
	}
	self.log.Debugf("remote %s %s status=%d duration=%s", method, path, resp.StatusCode, time.Since(tbegin))
	return &response{status: resp.StatusCode, body: body}, nil
}

func (r *response) success() bool { return r.status >= 200 && r.status < 300 }

func (r *response) ack() Result[Ack] {
	if !r.success() {
		return failWith[Ack](r.unexpected())
	}
	var a Ack
	if len(bytes.TrimSpace(r.body)) != 0 {
		if err := json.Unmarshal(r.body, &a); err != nil {
			return failWith[Ack](malformed(r, err))
		}
	}
	return Ok(a)
}

// detail decodes {"detail": ...}; ok=false means body is not JSON at all.
func (r *response) detail() (d errorDetail, legacy string, ok bool) {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(r.body, &envelope); err != nil {
		return d, "", false
	}
	if len(envelope.Detail) == 0 {
		return d, "", true
	}
	if err := json.Unmarshal(envelope.Detail, &legacy); err == nil {
		return d, legacy, true
	}
	_ = json.Unmarshal(envelope.Detail, &d)
	return d, "", true
}

func (r *response) notFound() *Error {
	d, legacy, ok := r.detail()
	if !ok {
		return malformed(r, errors.Errorf("404 body is not JSON"))
	}
	e := &Error{Status: r.status, Code: d.Error, Message: d.Message}
	switch {
	case d.Error == detailNoPatientRecord:
		e.Kind = KindNotFound
	case d.Error == detailNoAppointment:
		e.Kind = KindNoAppointment
	case d.Error == "" && legacy != "":
		e.Kind = KindNotFound
		e.Message = legacy
	default:
		e.Kind = KindUnknown
	}
	return e
}

func (r *response) unexpected() *Error {
	e := &Error{Kind: KindUnknown, Status: r.status}
	if d, legacy, ok := r.detail(); ok {
		e.Code = d.Error
		e.Message = d.Message
		if legacy != "" {
			e.Message = legacy
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(r.status)
	}
	return e
}

func malformed(r *response, err error) *Error {
	return &Error{Kind: KindNetwork, Status: r.status, Message: "malformed response", cause: errors.Trace(err)}
}

func recoverResult[T any](result *Result[T], op string) {
	if x := recover(); x != nil {
		*result = Fail[T](KindUnknown, fmt.Sprintf("%s: code error: %v", op, x))
	}
}
