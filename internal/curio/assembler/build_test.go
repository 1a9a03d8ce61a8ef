package assembler_test

import (
	"testing"
	"time"

	"github.com/museumops/curio/common/spec/report"
	"github.com/museumops/curio/internal/curio/assembler"
	"github.com/museumops/curio/internal/curio/daterange"
)

func TestBuild_Precedence(t *testing.T) {
	today := daterange.Day(2024, time.March, 10)
	d := daterange.Day

	tests := []struct {
		name      string
		sel       assembler.Selection
		wantMode  report.DateRangeMode
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:     "for all beats explicit dates",
			sel:      assembler.Selection{Mode: report.ModeCustom, Start: d(2024, 1, 1), End: d(2024, 1, 31), SourceText: "visitor list for all time"},
			wantMode: report.ModeAll,
		},
		{
			name:     "all available data beats resolver",
			sel:      assembler.Selection{SourceText: "last month, all available data"},
			wantMode: report.ModeAll,
		},
		{
			name:      "explicit dates beat resolver",
			sel:       assembler.Selection{Start: d(2024, 1, 1), End: d(2024, 1, 31), SourceText: "last week"},
			wantMode:  report.ModeCustom,
			wantStart: d(2024, 1, 1),
			wantEnd:   d(2024, 1, 31),
		},
		{
			name:      "explicit dates swapped when reversed",
			sel:       assembler.Selection{Mode: report.ModeCustom, Start: d(2024, 3, 9), End: d(2024, 3, 3)},
			wantMode:  report.ModeCustom,
			wantStart: d(2024, 3, 3),
			wantEnd:   d(2024, 3, 9),
		},
		{
			name:     "mode all beats resolver",
			sel:      assembler.Selection{Mode: report.ModeAll, SourceText: "Q1 2024"},
			wantMode: report.ModeAll,
		},
		{
			name:      "this month computed",
			sel:       assembler.Selection{Mode: report.ModeThisMonth},
			wantMode:  report.ModeThisMonth,
			wantStart: d(2024, 3, 1),
			wantEnd:   d(2024, 3, 31),
		},
		{
			name:      "resolver on source text",
			sel:       assembler.Selection{SourceText: "cultural objects report for Q1 2024"},
			wantMode:  report.ModeCustom,
			wantStart: d(2024, 1, 1),
			wantEnd:   d(2024, 3, 31),
		},
		{
			name:      "default window",
			sel:       assembler.Selection{SourceText: "cultural objects report"},
			wantMode:  report.ModeCustom,
			wantStart: d(2023, 12, 11),
			wantEnd:   d(2024, 4, 9),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.sel.Family = report.TypeCulturalObjects
			req := assembler.Build(tt.sel, today)
			if req.Mode != tt.wantMode {
				t.Errorf("mode: got %q, want %q", req.Mode, tt.wantMode)
			}
			if !req.Start.Equal(tt.wantStart) || !req.End.Equal(tt.wantEnd) {
				t.Errorf("dates: got %v..%v, want %v..%v", req.Start, req.End, tt.wantStart, tt.wantEnd)
			}
			if err := req.Validate(); err != nil {
				t.Errorf("built request invalid: %v", err)
			}
		})
	}
}

func TestBuild_KeepsSubFilter(t *testing.T) {
	req := assembler.Build(assembler.Selection{
		Family:     report.TypeDonationTypeReport,
		SubFilter:  report.SubFilter{DonationType: report.DonationLoan},
		Mode:       report.ModeAll,
		SourceText: "loans",
	}, time.Now())
	if req.Type != report.TypeDonationTypeReport || req.SubFilter.DonationType != report.DonationLoan || req.SourceText != "loans" {
		t.Errorf("got %+v", req)
	}
}
