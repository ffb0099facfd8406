package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sipeta/internal/category"
	"sipeta/internal/model"
	"sipeta/internal/repository"
)

// DiagnosticsCategory is the table probed by diagnostics.
const DiagnosticsCategory = "surat-masuk"

// DiagnosticsResult is the connectivity report.
type DiagnosticsResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	ConnectionTest string `json:"connection_test,omitempty"`
	InsertTest     string `json:"insert_test,omitempty"`
	Error          string `json:"error,omitempty"`
	Details        string `json:"details,omitempty"`
}

// DiagnosticsService checks that the archive tables are reachable and writable.
type DiagnosticsService interface {
	Run(ctx context.Context) (*DiagnosticsResult, error)
}

type diagnosticsService struct {
	reg  *category.Registry
	repo repository.RecordRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewDiagnosticsService constructs the diagnostics probe.
func NewDiagnosticsService(reg *category.Registry, repo repository.RecordRepository, log zerolog.Logger) DiagnosticsService {
	return &diagnosticsService{reg: reg, repo: repo, log: log, now: time.Now}
}

// Run reads one id, inserts a TEST-API row and deletes it again. A failed step is
// reported in the result, not as an error; error is reserved for wiring problems.
func (s *diagnosticsService) Run(ctx context.Context) (*DiagnosticsResult, error) {
	c, err := s.reg.Lookup(DiagnosticsCategory)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Probe(ctx, c); err != nil {
		s.log.Error().Str("event", "diagnostics_connection_failed").Err(err).Msg("")
		return &DiagnosticsResult{
			Error:   err.Error(),
			Details: "connection to table " + c.Table + " failed",
		}, nil
	}

	now := s.now()
	rec := &model.Record{
		ID:       uuid.NewString(),
		Category: c.Key,
		Fields:   testFields(c, now),
		FileURL:  "https://example.com/diagnostics.pdf",
		FileName: "diagnostics.pdf",
		FilePath: "diagnostics/diagnostics.pdf",
	}
	stored, err := s.repo.Insert(ctx, c, rec)
	if err != nil {
		s.log.Error().Str("event", "diagnostics_insert_failed").Err(err).Msg("")
		return &DiagnosticsResult{
			Error:   err.Error(),
			Details: "test insert failed",
		}, nil
	}

	if err := s.repo.Delete(ctx, c, stored.ID); err != nil {
		s.log.Warn().Str("event", "diagnostics_cleanup_failed").Str("record_id", stored.ID).Err(err).Msg("")
	}

	return &DiagnosticsResult{
		Success:        true,
		Message:        "Database connection and insert are working",
		ConnectionTest: "passed",
		InsertTest:     fmt.Sprintf("passed (%v)", rec.Fields[firstSubject(c)]),
	}, nil
}

// testFields fills every required field with a plausible value. The subject
// field carries a unique TEST-API-<millis> marker.
func testFields(c *category.Category, now time.Time) map[string]any {
	marker := "TEST-API-" + strconv.FormatInt(now.UnixMilli(), 10)
	subject := firstSubject(c)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	out := map[string]any{}
	for _, f := range c.Fields {
		if !f.Required && f.Name != subject {
			continue
		}
		switch {
		case f.Name == subject:
			out[f.Name] = marker
		case f.Type == category.Date:
			out[f.Name] = day
		case f.Type == category.Number:
			out[f.Name] = float64(0)
		case f.Type == category.Select && len(f.Options) > 0:
			out[f.Name] = f.Options[0]
		default:
			out[f.Name] = "Diagnostics"
		}
	}
	return out
}

func firstSubject(c *category.Category) string {
	for _, name := range c.SubjectFields {
		if _, ok := c.Field(name); ok {
			return name
		}
	}
	return ""
}
