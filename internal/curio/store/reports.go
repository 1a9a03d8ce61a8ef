package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/museumops/curio/common/spec/report"
)

// ReportRecord is one row of the report audit trail.
type ReportRecord struct {
	ID              string
	ConversationKey string
	TraceID         string
	Request         report.Request
	Status          string
	ReportID        string
	ReportTitle     string
	Error           string
	Duration        time.Duration
	CreatedAt       time.Time
}

// RecordReport stores a generation outcome. ID and CreatedAt are filled in
// when empty.
func (s *Store) RecordReport(ctx context.Context, r *ReportRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	req := r.Request

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_requests (
			id, conversation_key, trace_id, report_type, date_mode, start_date, end_date,
			donation_type, event_id, year, month, source_text,
			status, report_id, report_title, error_message, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.ConversationKey, nullString(r.TraceID), string(req.Type), string(req.Mode),
		nullDate(req.Start), nullDate(req.End),
		nullString(string(req.SubFilter.DonationType)), nullString(req.SubFilter.EventID),
		nullInt(req.SubFilter.Year), nullInt(req.SubFilter.Month), nullString(req.SourceText),
		r.Status, nullString(r.ReportID), nullString(r.ReportTitle), nullString(r.Error),
		r.Duration.Milliseconds(), r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record report request: %w", err)
	}
	return nil
}

// ListReports returns the most recent report records, newest first. An
// empty key lists every conversation.
func (s *Store) ListReports(ctx context.Context, key string, limit int) ([]*ReportRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_key, trace_id, report_type, date_mode, start_date, end_date,
			donation_type, event_id, year, month, source_text,
			status, report_id, report_title, error_message, duration_ms, created_at
		FROM report_requests
		WHERE ? = '' OR conversation_key = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, key, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query report requests: %w", err)
	}
	defer rows.Close()

	var out []*ReportRecord
	for rows.Next() {
		var (
			r                                            ReportRecord
			traceID, start, end, donation, event, source sql.NullString
			reportID, title, errMsg                      sql.NullString
			year, month                                  sql.NullInt64
			reportType, mode                             string
			durationMS                                   int64
		)
		if err := rows.Scan(
			&r.ID, &r.ConversationKey, &traceID, &reportType, &mode, &start, &end,
			&donation, &event, &year, &month, &source,
			&r.Status, &reportID, &title, &errMsg, &durationMS, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report request: %w", err)
		}
		r.TraceID = traceID.String
		r.Request = report.Request{
			Type: report.Type(reportType),
			Mode: report.DateRangeMode(mode),
			SubFilter: report.SubFilter{
				DonationType: report.DonationType(donation.String),
				EventID:      event.String,
				Year:         int(year.Int64),
				Month:        int(month.Int64),
			},
			SourceText: source.String,
		}
		if r.Request.Start, err = parseDate(start); err != nil {
			return nil, err
		}
		if r.Request.End, err = parseDate(end); err != nil {
			return nil, err
		}
		r.ReportID = reportID.String
		r.ReportTitle = title.String
		r.Error = errMsg.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report requests: %w", err)
	}
	return out, nil
}

// ReportCounts returns the number of report records per status.
func (s *Store) ReportCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM report_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count report requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan report count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(report.DateLayout), Valid: true}
}

func parseDate(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(report.DateLayout, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored date %q: %w", s.String, err)
	}
	return t, nil
}
