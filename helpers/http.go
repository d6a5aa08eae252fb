package helpers

import (
	"bufio"
	"bytes"
	"fmt"
	"net/http"
)

// MockHTTP is http.RoundTripper returning canned raw response.
// Plug into http.Client{Transport: ...} in tests.
type MockHTTP struct {
	Fun    func(*http.Request) (*http.Response, error)
	Header []byte
	Body   []byte
	Err    error

	Requests []*http.Request
}

// NewMockJSON responds with given status and JSON body.
func NewMockJSON(status int, body string) *MockHTTP {
	header := fmt.Sprintf("HTTP/1.1 %d %s\r\nContent-Type: application/json\r\nContent-Length: %d\r\n\r\n",
		status, http.StatusText(status), len(body))
	return &MockHTTP{Header: []byte(header), Body: []byte(body)}
}

func (m *MockHTTP) RoundTrip(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	if m.Fun != nil {
		return m.Fun(req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	header := m.Header
	if header == nil {
		header = []byte("HTTP/1.0 200 OK\r\n\r\n")
	}
	rb := make([]byte, 0, len(header)+len(m.Body))
	rb = append(rb, header...)
	rb = append(rb, m.Body...)
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(rb)), req)
}
