package recognition

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed envelope.schema.json
var envelopeSchemaJSON string

var envelopeSchema = jsonschema.MustCompileString("envelope.schema.json", envelopeSchemaJSON)

// Response is the JSON envelope returned by the recognition service.
type Response struct {
	Status    bool            `json:"status"`
	Res       json.RawMessage `json:"res,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Message   any             `json:"message,omitempty"`
}

// Payload is the content of Response.Res on success.
type Payload struct {
	Latex string  `json:"latex"`
	Conf  float64 `json:"conf"`
}

// Result is a successful recognition.
type Result struct {
	Markup     string
	Confidence float64
	RequestID  string
}

// ParseResponse validates data against the envelope schema and decodes it.
func ParseResponse(data []byte) (*Response, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if err := envelopeSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("unexpected response shape: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// Result extracts the markup from a successful envelope.
func (r *Response) Result() (Result, error) {
	if !r.Status {
		if msg := r.message(); msg != "" {
			return Result{}, fmt.Errorf("service reported failure: %s", msg)
		}
		return Result{}, fmt.Errorf("service reported failure")
	}

	var p Payload
	if len(r.Res) > 0 && string(r.Res) != "null" {
		if err := json.Unmarshal(r.Res, &p); err != nil {
			return Result{}, fmt.Errorf("decode res: %w", err)
		}
	}
	if strings.TrimSpace(p.Latex) == "" {
		return Result{}, fmt.Errorf("service returned no markup")
	}

	return Result{Markup: p.Latex, Confidence: p.Conf, RequestID: r.RequestID}, nil
}

// message renders the service's failure detail, which may be a string or an object.
func (r *Response) message() string {
	switch m := r.Message.(type) {
	case nil:
		return ""
	case string:
		return m
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
