package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/museumops/curio/common/spec/report"
	"github.com/museumops/curio/common/version"
	"github.com/museumops/curio/internal/curio/dialogue"
	"github.com/museumops/curio/internal/curio/memory"
	"github.com/museumops/curio/internal/curio/store"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

type statusResponse struct {
	Status        string         `json:"status"`
	Version       string         `json:"version"`
	Commit        string         `json:"commit"`
	BuildTime     string         `json:"build_time"`
	StartedAt     time.Time      `json:"started_at"`
	UptimeSecs    float64        `json:"uptime_seconds"`
	Conversations int            `json:"conversations"`
	Active        []string       `json:"active_conversations"`
	Reports       map[string]int `json:"reports,omitempty"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type optionRequest struct {
	OptionID string `json:"option_id"`
	Action   string `json:"action"`
	Value    string `json:"value"`
	Label    string `json:"label"`
	// Start and End carry a date-picker range for custom_dates clicks.
	Start string `json:"start"`
	End   string `json:"end"`
}

type repliesResponse struct {
	Conversation string           `json:"conversation"`
	Replies      []memory.Message `json:"replies"`
	State        dialogue.State   `json:"state"`
	Generating   bool             `json:"generating"`
}

type stateResponse struct {
	Conversation string         `json:"conversation"`
	State        dialogue.State `json:"state"`
	Generating   bool           `json:"generating"`
	// RateLimitRemaining is omitted when no limiter is configured.
	RateLimitRemaining *int `json:"rate_limit_remaining,omitempty"`
}

type documentResponse struct {
	ID         string          `json:"id"`
	ReportID   string          `json:"report_id,omitempty"`
	Title      string          `json:"title,omitempty"`
	ReportType report.Type     `json:"report_type"`
	StartDate  string          `json:"start_date,omitempty"`
	EndDate    string          `json:"end_date,omitempty"`
	Content    string          `json:"content,omitempty"`
	Report     json.RawMessage `json:"report,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type messagesResponse struct {
	Conversation string           `json:"conversation"`
	Messages     []memory.Message `json:"messages"`
}

type reportResponse struct {
	ID          string                 `json:"id"`
	Mode        report.DateRangeMode   `json:"date_mode"`
	Request     report.GenerateRequest `json:"request"`
	Status      string                 `json:"status"`
	ReportID    string                 `json:"report_id,omitempty"`
	ReportTitle string                 `json:"report_title,omitempty"`
	Error       string                 `json:"error,omitempty"`
	DurationMS  int64                  `json:"duration_ms"`
	CreatedAt   time.Time              `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Commit:  version.GitCommit,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:        "ok",
		Version:       version.Version,
		Commit:        version.GitCommit,
		BuildTime:     version.BuildTime,
		StartedAt:     s.startedAt,
		UptimeSecs:    time.Since(s.startedAt).Seconds(),
		Conversations: s.registry.Len(),
		Active:        s.registry.Keys(),
	}
	if s.store != nil {
		if counts, err := s.store.ReportCounts(r.Context()); err == nil {
			resp.Reports = counts
		} else {
			s.logger.Warn("status: report counts unavailable", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dialogue.Menu())
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	c := s.registry.Get(Room, chi.URLParam(r, "id"))
	s.writeReplies(w, c, c.HandleText(r.Context(), req.Text))
}

func (s *Server) handlePostOption(w http.ResponseWriter, r *http.Request) {
	var req optionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c := s.registry.Get(Room, chi.URLParam(r, "id"))

	if req.OptionID != "" {
		replies, err := c.HandleOptionID(r.Context(), req.OptionID)
		if errors.Is(err, dialogue.ErrUnknownOption) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeReplies(w, c, replies)
		return
	}

	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "option_id or action is required")
		return
	}
	click := dialogue.Click{Action: req.Action, Value: req.Value, Label: req.Label}
	var err error
	if click.Start, err = parseOptionalDate(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	if click.End, err = parseOptionalDate(req.End); err != nil {
		writeError(w, http.StatusBadRequest, "end: "+err.Error())
		return
	}
	s.writeReplies(w, c, c.HandleOption(r.Context(), click))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	key := dialogue.Key(Room, chi.URLParam(r, "id"))
	if c, ok := s.registry.Lookup(key); ok {
		writeJSON(w, http.StatusOK, messagesResponse{Conversation: key, Messages: c.Messages()})
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	msgs, err := s.store.ListMessages(r.Context(), key, store.DefaultHistoryLimit)
	if err != nil {
		s.logger.Error("failed to load conversation history", "conversation", key, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if len(msgs) == 0 {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, messagesResponse{Conversation: key, Messages: msgs})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	key := dialogue.Key(Room, chi.URLParam(r, "id"))
	c, ok := s.registry.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	resp := stateResponse{
		Conversation: key,
		State:        c.State(),
		Generating:   c.Generating(),
	}
	if s.limiter != nil {
		n := s.limiter.Remaining(key)
		resp.RateLimitRemaining = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []reportResponse{})
		return
	}
	key := dialogue.Key(Room, chi.URLParam(r, "id"))
	records, err := s.store.ListReports(r.Context(), key, 50)
	if err != nil {
		s.logger.Error("failed to list reports", "conversation", key, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	out := make([]reportResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, reportResponse{
			ID:          rec.ID,
			Mode:        rec.Request.Mode,
			Request:     rec.Request.Wire(),
			Status:      rec.Status,
			ReportID:    rec.ReportID,
			ReportTitle: rec.ReportTitle,
			Error:       rec.Error,
			DurationMS:  rec.Duration.Milliseconds(),
			CreatedAt:   rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	key := dialogue.Key(Room, chi.URLParam(r, "id"))
	doc, err := s.store.GetDocument(r.Context(), key, chi.URLParam(r, "reportID"))
	if errors.Is(err, store.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load report", "conversation", key, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{
		ID:         doc.ID,
		ReportID:   doc.Report.ID,
		Title:      doc.Report.Title,
		ReportType: doc.ReportType,
		StartDate:  doc.Report.StartDate,
		EndDate:    doc.Report.EndDate,
		Content:    doc.Report.Content,
		Report:     doc.Report.Raw,
		CreatedAt:  doc.CreatedAt,
	})
}

func (s *Server) writeReplies(w http.ResponseWriter, c *dialogue.Controller, replies []memory.Message) {
	if replies == nil {
		replies = []memory.Message{}
	}
	writeJSON(w, http.StatusOK, repliesResponse{
		Conversation: c.Key(),
		Replies:      replies,
		State:        c.State(),
		Generating:   c.Generating(),
	})
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(report.DateLayout, s)
}

// writeJSON serialises v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("httpapi: failed to encode JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
