package denonprotocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Result is the success/fail discriminator of a HEOS reply.
type Result int

const (
	// ResultUnknown is the zero value; a reply without a result field
	// decodes to it.
	ResultUnknown Result = iota
	// ResultSuccess indicates the device accepted the command.
	ResultSuccess
	// ResultFail indicates the device rejected the command.
	ResultFail
)

// String returns the wire form of the result.
func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultFail:
		return "fail"
	case ResultUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// UnmarshalJSON decodes "success" or "fail", ignoring case.
func (r *Result) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("result: %w", err)
	}
	switch strings.ToLower(s) {
	case "success":
		*r = ResultSuccess
	case "fail":
		*r = ResultFail
	default:
		return fmt.Errorf("result: unknown value %q", s)
	}
	return nil
}

// MarshalJSON encodes the result in its wire form.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// Header is the "heos" object carried by every reply.
type Header struct {
	Command string `json:"command"`
	Result  Result `json:"result"`
	Message string `json:"message"`
}

// IsEvent reports whether the header belongs to an unsolicited event.
func (h Header) IsEvent() bool {
	return strings.HasPrefix(h.Command, EventCommandPrefix)
}

// IsUnderProcess reports whether the reply is an interim acknowledgement.
func (h Header) IsUnderProcess() bool {
	return strings.Contains(h.Message, CommandUnderProcess)
}

// Fields parses the message as &-separated key=value pairs. Keys without a
// value map to the empty string.
func (h Header) Fields() map[string]string {
	fields := make(map[string]string)
	if h.Message == "" {
		return fields
	}
	for _, pair := range strings.Split(h.Message, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		fields[key] = unescapeParam(value)
	}
	return fields
}

// Response is a decoded HEOS reply with a typed payload.
type Response[T any] struct {
	Heos    Header `json:"heos"`
	Payload T      `json:"payload"`
}

// rawResponse is the structural form every reply is decoded into before
// the payload shape is known to be meaningful.
type rawResponse struct {
	Heos    *Header         `json:"heos"`
	Payload json.RawMessage `json:"payload"`
}

func (r rawResponse) header() Header {
	if r.Heos == nil {
		return Header{}
	}
	return *r.Heos
}

var (
	errMissingHeader = errors.New("missing heos header")
	errMissingResult = errors.New("missing result in heos header")
)

// unwrap checks the discriminator and decodes the payload only on success.
func unwrap[T any](raw rawResponse) (Response[T], error) {
	resp := Response[T]{Heos: raw.header()}
	if raw.Heos == nil {
		return resp, &DecodeError{Cause: errMissingHeader}
	}
	switch resp.Heos.Result {
	case ResultFail:
		return resp, newProtocolError(resp.Heos)
	case ResultSuccess:
	default:
		return resp, &DecodeError{Command: resp.Heos.Command, Cause: errMissingResult}
	}
	if len(raw.Payload) == 0 || bytes.Equal(raw.Payload, []byte("null")) {
		return resp, nil
	}
	if err := json.Unmarshal(raw.Payload, &resp.Payload); err != nil {
		return resp, &DecodeError{Command: resp.Heos.Command, Cause: err}
	}
	return resp, nil
}

// DecodeResponse decodes a single reply from data.
func DecodeResponse[T any](data []byte) (Response[T], error) {
	var raw rawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return Response[T]{}, &DecodeError{Cause: err}
	}
	return unwrap[T](raw)
}

// Player is one HEOS playback endpoint.
type Player struct {
	Name    string `json:"name"`
	PID     int64  `json:"pid"`
	GID     int64  `json:"gid,omitempty"`
	Model   string `json:"model"`
	Version string `json:"version"`
	IP      string `json:"ip,omitempty"`
	Network string `json:"network"`
	LineOut uint8  `json:"lineout"`
	Serial  string `json:"serial"`
}
