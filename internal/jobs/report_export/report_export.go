package reportexport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/benedict-erwin/detection-reporter/config"
	"github.com/benedict-erwin/detection-reporter/internal/chart"
	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/export"
	"github.com/benedict-erwin/detection-reporter/internal/pivot"
	"github.com/benedict-erwin/detection-reporter/internal/session"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
	"github.com/benedict-erwin/detection-reporter/pkg/redis"
	"github.com/benedict-erwin/detection-reporter/pkg/utils"
)

const TypeReportExportPDF = "report:export_pdf"

// Job status lifecycle values
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const statusTTL = 24 * time.Hour

// Task payload
type ReportExportPayload struct {
	JobID     string              `json:"job_id"`
	SessionID string              `json:"session_id"`
	Table     string              `json:"table,omitempty"` // empty = primary dataset
	Title     string              `json:"title"`
	Config    *report.PivotConfig `json:"config"`
	RequestID string              `json:"request_id"`
}

// JobStatus is the record the status endpoint reads back.
type JobStatus struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	File      string `json:"file,omitempty"`
	Error     string `json:"error,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

func statusKey(jobID string) string {
	return "export:job:" + jobID
}

// SaveStatus writes a job status record to Redis.
func SaveStatus(ctx context.Context, status *JobStatus) error {
	status.UpdatedAt = utils.NowFormatted()
	return redis.SetJSON(ctx, statusKey(status.JobID), status, statusTTL)
}

// LoadStatus reads a job status record from Redis.
func LoadStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	var status JobStatus
	if err := redis.GetJSON(ctx, statusKey(jobID), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Job processor function
func HandleReportExportPDF(ctx context.Context, t *asynq.Task) error {
	var payload ReportExportPayload

	// Logger scope
	log := logger.WithScope(TypeReportExportPDF)

	// Unmarshal request payload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal payload")
		return err
	}

	log.Info().
		Str("job_id", payload.JobID).
		Str("session_id", payload.SessionID).
		Str("request_id", payload.RequestID).
		Msg("Starting PDF export job")

	markFailed := func(reason string, err error) error {
		if err != nil {
			reason = fmt.Sprintf("%s: %v", reason, err)
		}
		if saveErr := SaveStatus(ctx, &JobStatus{
			JobID:  payload.JobID,
			Status: StatusFailed,
			Error:  reason,
		}); saveErr != nil {
			log.Error().Err(saveErr).Str("job_id", payload.JobID).Msg("Failed to persist job status")
		}
		log.Error().Err(err).Str("job_id", payload.JobID).Str("reason", reason).Msg("PDF export job failed")
		return err
	}

	if err := SaveStatus(ctx, &JobStatus{JobID: payload.JobID, Status: StatusRunning}); err != nil {
		log.Warn().Err(err).Str("job_id", payload.JobID).Msg("Failed to mark job running")
	}

	// Load the session. The worker process relies on the Redis mirror.
	sess, found := session.GetStore().Get(ctx, payload.SessionID)
	if !found {
		return markFailed("session not found or expired", nil)
	}

	rs := sess.Primary
	if payload.Table != "" {
		if tbl, ok := sess.Tables[payload.Table]; ok {
			rs = tbl
		} else {
			return markFailed(fmt.Sprintf("unknown table %q", payload.Table), nil)
		}
	}
	if rs == nil || rs.Len() == 0 {
		return markFailed("session has no uploaded data", nil)
	}

	cfg := payload.Config
	if cfg == nil {
		cfg = sess.Config
	}
	if cfg == nil {
		return markFailed("no pivot configuration", nil)
	}

	// Pipeline: top-n filter, pivot, chart composition.
	filtered := pivot.FilterTopN(rs, cfg.TopN)
	table, err := pivot.Build(filtered, cfg)
	if err != nil {
		return markFailed("pivot build failed", err)
	}

	spec, err := chart.Compose(table, cfg)
	if err != nil {
		return markFailed("chart composition failed", err)
	}

	// Render to the export directory.
	exportDir := config.Get().Report.ExportDir
	if exportDir == "" {
		exportDir = "exports"
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return markFailed("failed to create export directory", err)
	}

	filePath := filepath.Join(exportDir, payload.JobID+".pdf")
	f, err := os.Create(filePath)
	if err != nil {
		return markFailed("failed to create export file", err)
	}

	if err := export.WritePDF(f, payload.Title, cfg, table, spec); err != nil {
		f.Close()
		os.Remove(filePath)
		return markFailed("pdf rendering failed", err)
	}
	if err := f.Close(); err != nil {
		return markFailed("failed to finalize export file", err)
	}

	if err := SaveStatus(ctx, &JobStatus{
		JobID:  payload.JobID,
		Status: StatusCompleted,
		File:   filePath,
	}); err != nil {
		log.Error().Err(err).Str("job_id", payload.JobID).Msg("Failed to persist job status")
	}

	log.Info().
		Str("task_id", t.ResultWriter().TaskID()).
		Str("task_type", t.Type()).
		Str("job_id", payload.JobID).
		Str("file", filePath).
		Msg("Job completed successfully")

	return nil
}
