package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/museumops/curio/common/spec/report"
)

// ErrDocumentNotFound is returned when no stored report document matches.
var ErrDocumentNotFound = errors.New("report document not found")

// Document is a generated report as returned by the report service.
type Document struct {
	ID              string
	ConversationKey string
	ReportType      report.Type
	Report          report.Report
	CreatedAt       time.Time
}

// SaveDocument stores a generated report. ID and CreatedAt are filled in
// when empty.
func (s *Store) SaveDocument(ctx context.Context, d *Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	rep := d.Report

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_documents (
			id, conversation_key, report_id, title, report_type,
			start_date, end_date, content, payload, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		d.ID, d.ConversationKey, nullString(rep.ID), nullString(rep.Title), string(d.ReportType),
		nullString(rep.StartDate), nullString(rep.EndDate), nullString(rep.Content),
		nullString(string(rep.Raw)), d.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save report document: %w", err)
	}
	return nil
}

// GetDocument returns the newest document of a conversation whose report
// service ID or local ID equals id.
func (s *Store) GetDocument(ctx context.Context, key, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, conversation_key, report_id, title, report_type,
			start_date, end_date, content, payload, created_at
		FROM report_documents
		WHERE conversation_key = ? AND (report_id = ? OR id = ?)
		ORDER BY created_at DESC
		LIMIT 1
	`, key, id, id)

	var (
		d                                             Document
		reportID, title, start, end, content, payload sql.NullString
		reportType                                    string
	)
	err := row.Scan(&d.ID, &d.ConversationKey, &reportID, &title, &reportType,
		&start, &end, &content, &payload, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report document: %w", err)
	}
	d.ReportType = report.Type(reportType)
	d.Report = report.Report{
		ID:         reportID.String,
		Title:      title.String,
		ReportType: reportType,
		Content:    content.String,
		StartDate:  start.String,
		EndDate:    end.String,
	}
	if payload.Valid && payload.String != "" {
		d.Report.Raw = json.RawMessage(payload.String)
	}
	return &d, nil
}
