package report_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/museumops/curio/common/spec/report"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     report.Request
		wantErr bool
	}{
		{"all mode no dates", report.Request{Type: report.TypeCulturalObjects, Mode: report.ModeAll}, false},
		{"custom ordered", report.Request{Type: report.TypeVisitorList, Mode: report.ModeCustom, Start: day(2024, 3, 3), End: day(2024, 3, 9)}, false},
		{"single day", report.Request{Type: report.TypeVisitorList, Mode: report.ModeCustom, Start: day(2024, 3, 3), End: day(2024, 3, 3)}, false},
		{"custom reversed", report.Request{Type: report.TypeVisitorList, Mode: report.ModeCustom, Start: day(2024, 3, 9), End: day(2024, 3, 3)}, true},
		{"custom missing end", report.Request{Type: report.TypeVisitorList, Mode: report.ModeCustom, Start: day(2024, 3, 9)}, true},
		{"all with dates", report.Request{Type: report.TypeVisitorList, Mode: report.ModeAll, Start: day(2024, 3, 9), End: day(2024, 3, 9)}, true},
		{"unknown type", report.Request{Type: "sales", Mode: report.ModeAll}, true},
		{"unknown mode", report.Request{Type: report.TypeVisitorList, Mode: "forever"}, true},
		{"donation type missing", report.Request{Type: report.TypeDonationTypeReport, Mode: report.ModeAll}, true},
		{"donation type set", report.Request{Type: report.TypeDonationTypeReport, Mode: report.ModeAll, SubFilter: report.SubFilter{DonationType: report.DonationLoan}}, false},
		{"participants across events", report.Request{Type: report.TypeEventParticipants, Mode: report.ModeThisMonth, Start: day(2024, 3, 1), End: day(2024, 3, 31)}, false},
		{"bad month", report.Request{Type: report.TypeVisitorAnalytics, Mode: report.ModeAll, SubFilter: report.SubFilter{Month: 13}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, report.ErrInvalidRequest) {
				t.Errorf("error %v does not wrap ErrInvalidRequest", err)
			}
		})
	}
}

func TestWire(t *testing.T) {
	all := report.Request{Type: report.TypeDonationReport, Mode: report.ModeAll, SourceText: "donation list", SubFilter: report.SubFilter{DonationType: report.DonationAll}}.Wire()
	if all.StartDate != "all" || all.EndDate != "all" {
		t.Errorf("all mode dates: got %q/%q", all.StartDate, all.EndDate)
	}
	if all.DonationType != report.DonationAll {
		t.Errorf("donationType: got %q", all.DonationType)
	}

	custom := report.Request{Type: report.TypeVisitorAnalytics, Mode: report.ModeCustom, Start: day(2023, 1, 1), End: day(2023, 12, 31), SubFilter: report.SubFilter{Year: 2023}}.Wire()
	b, err := json.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"reportType":"visitor_analytics","startDate":"2023-01-01","endDate":"2023-12-31","year":2023,"userRequest":""}`
	if string(b) != want {
		t.Errorf("wire:\n got %s\nwant %s", b, want)
	}
}

func TestSpan(t *testing.T) {
	if got := (report.Request{Mode: report.ModeAll}).Span(); got != "all available data" {
		t.Errorf("all: got %q", got)
	}
	r := report.Request{Mode: report.ModeCustom, Start: day(2024, 3, 1), End: day(2024, 3, 31)}
	if got := r.Span(); got != "2024-03-01 to 2024-03-31" {
		t.Errorf("range: got %q", got)
	}
}

func TestDecodeGenerateResponse(t *testing.T) {
	t.Run("success with numeric id", func(t *testing.T) {
		body := `{"success":true,"report":{"id":42,"title":"Visitors","report_type":"visitor_list","content":"...","start_date":"2024-03-01","end_date":"2024-03-31","rows":[1,2]}}`
		resp, err := report.DecodeGenerateResponse([]byte(body))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Report == nil || resp.Report.ID != "42" {
			t.Fatalf("report id: got %+v", resp.Report)
		}
		if resp.Report.Content != "..." || resp.Report.Title != "Visitors" {
			t.Errorf("fields: got %+v", resp.Report)
		}
		if len(resp.Report.Raw) == 0 {
			t.Error("raw report not kept")
		}
	})

	t.Run("no data", func(t *testing.T) {
		resp, err := report.DecodeGenerateResponse([]byte(`{"success":false,"message":"No data found for the selected period"}`))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !resp.NoData() {
			t.Error("expected NoData")
		}
	})

	malformed := map[string]string{
		"not json":           `{`,
		"missing success":    `{"message":"x"}`,
		"success no report":  `{"success":true}`,
		"failure no message": `{"success":false}`,
		"report without id":  `{"success":true,"report":{"title":"x"}}`,
		"success wrong type": `{"success":"yes","message":"x"}`,
	}
	for name, body := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := report.DecodeGenerateResponse([]byte(body))
			if !errors.Is(err, report.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestEventUnmarshal(t *testing.T) {
	var list report.EventList
	if err := json.Unmarshal([]byte(`{"events":[{"id":7,"name":"Gala","description":"d","date":"2024-05-01"},{"id":"ev-2","name":"Talk"}]}`), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list.Events) != 2 || list.Events[0].ID != "7" || list.Events[1].ID != "ev-2" || list.Events[0].Name != "Gala" {
		t.Errorf("got %+v", list.Events)
	}
}
