package report

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedResponse is returned when a generation response fails schema
// validation or cannot be decoded.
var ErrMalformedResponse = errors.New("malformed generation response")

//go:embed generate_response.schema.json
var responseSchemaSrc string

var responseSchema = jsonschema.MustCompileString("generate_response.schema.json", responseSchemaSrc)

// GenerateRequest is the JSON body sent to the generation service.
type GenerateRequest struct {
	ReportType   Type         `json:"reportType"`
	StartDate    string       `json:"startDate"`
	EndDate      string       `json:"endDate"`
	DonationType DonationType `json:"donationType,omitempty"`
	EventID      string       `json:"eventId,omitempty"`
	Year         int          `json:"year,omitempty"`
	Month        int          `json:"month,omitempty"`
	UserRequest  string       `json:"userRequest"`
}

// Wire converts r to its JSON form. ModeAll becomes the "all" sentinel on
// both dates.
func (r Request) Wire() GenerateRequest {
	g := GenerateRequest{
		ReportType:   r.Type,
		StartDate:    AllSentinel,
		EndDate:      AllSentinel,
		DonationType: r.SubFilter.DonationType,
		EventID:      r.SubFilter.EventID,
		Year:         r.SubFilter.Year,
		Month:        r.SubFilter.Month,
		UserRequest:  r.SourceText,
	}
	if r.Mode != ModeAll && !r.Start.IsZero() {
		g.StartDate = r.Start.Format(DateLayout)
		g.EndDate = r.End.Format(DateLayout)
	}
	return g
}

// Report is a generated report as returned by the service. Raw keeps the
// full object, including any structured fields beyond the common ones.
type Report struct {
	ID         string          `json:"-"`
	Title      string          `json:"title"`
	ReportType string          `json:"report_type"`
	Content    string          `json:"-"`
	StartDate  string          `json:"start_date"`
	EndDate    string          `json:"end_date"`
	Raw        json.RawMessage `json:"-"`
}

// GenerateResponse is the decoded service reply.
type GenerateResponse struct {
	Success bool    `json:"success"`
	Report  *Report `json:"-"`
	Message string  `json:"message"`
}

// NoData reports whether the service answered with an empty-result message.
func (g *GenerateResponse) NoData() bool {
	return !g.Success && strings.Contains(strings.ToLower(g.Message), "no data found")
}

// DecodeGenerateResponse validates body against the response schema and
// decodes it.
func DecodeGenerateResponse(body []byte) (*GenerateResponse, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := responseSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Report  json.RawMessage `json:"report"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	out := &GenerateResponse{Success: envelope.Success, Message: envelope.Message}
	if len(envelope.Report) == 0 || string(envelope.Report) == "null" {
		return out, nil
	}

	var rep Report
	if err := json.Unmarshal(envelope.Report, &rep); err != nil {
		return nil, fmt.Errorf("%w: report: %v", ErrMalformedResponse, err)
	}
	var loose map[string]any
	if err := json.Unmarshal(envelope.Report, &loose); err != nil {
		return nil, fmt.Errorf("%w: report: %v", ErrMalformedResponse, err)
	}
	rep.ID = scalarString(loose["id"])
	if c, ok := loose["content"].(string); ok {
		rep.Content = c
	}
	rep.Raw = envelope.Report
	out.Report = &rep
	return out, nil
}

// scalarString renders a JSON string or number id as text.
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return fmt.Sprintf("%.0f", x)
	}
	return ""
}

// Event is one entry of the event listing.
type Event struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// UnmarshalJSON accepts numeric or string ids.
func (e *Event) UnmarshalJSON(b []byte) error {
	type plain Event
	var aux struct {
		plain
		ID any `json:"id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*e = Event(aux.plain)
	e.ID = scalarString(aux.ID)
	return nil
}

// EventList is the event-listing service reply.
type EventList struct {
	Events []Event `json:"events"`
}
