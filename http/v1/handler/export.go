package handler

import (
	"crypto/md5"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/detection-reporter/internal/constants"
	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/export"
	reportexport "github.com/benedict-erwin/detection-reporter/internal/jobs/report_export"
	"github.com/benedict-erwin/detection-reporter/pkg/asynq"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
	"github.com/benedict-erwin/detection-reporter/pkg/response"
	"github.com/benedict-erwin/detection-reporter/pkg/utils"
)

// ExportCSV streams the pivot table as a CSV attachment
func ExportCSV(c echo.Context) error {
	var req report.ExportRequest

	log := logger.WithScope("ExportCSV")

	sess, ok := loadSession(c)
	if !ok {
		return nil
	}
	if err := c.Bind(&req); err != nil {
		return response.FailWithCodeAndMessage(c, constants.CodeInvalidJSON, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.FailWithCodeAndMessage(c, constants.CodeValidationFailed, err.Error())
	}

	rs, ok := resolveDataset(c, sess, req.Table)
	if !ok {
		return nil
	}
	table, ok := buildPivot(c, rs, req.Config)
	if !ok {
		return nil
	}

	filename := req.Title
	if filename == "" {
		filename = "pivot"
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
	c.Response().WriteHeader(http.StatusOK)

	if err := export.WriteCSV(c.Response(), table); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("CSV export failed")
		return err
	}
	return nil
}

// ExportPDF dispatches an async PDF export job
func ExportPDF(c echo.Context) error {
	var req report.ExportRequest

	log := logger.WithScope("ExportPDF")

	sess, ok := loadSession(c)
	if !ok {
		return nil
	}
	if err := c.Bind(&req); err != nil {
		return response.FailWithCodeAndMessage(c, constants.CodeInvalidJSON, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.FailWithCodeAndMessage(c, constants.CodeValidationFailed, err.Error())
	}
	if _, ok := resolveDataset(c, sess, req.Table); !ok {
		return nil
	}

	jobID := generateExportJobID(sess.ID, &req)
	payload := asynq.Payload{
		TaskId:   jobID,
		TaskType: reportexport.TypeReportExportPDF,
		Data: reportexport.ReportExportPayload{
			JobID:     jobID,
			SessionID: sess.ID,
			Table:     req.Table,
			Title:     req.Title,
			Config:    req.Config,
			RequestID: constants.GetRequestID(c),
		},
	}

	if err := reportexport.SaveStatus(c.Request().Context(), &reportexport.JobStatus{
		JobID:  jobID,
		Status: reportexport.StatusQueued,
	}); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to persist job status")
		return response.FailWithCode(c, constants.CodeRedisError)
	}

	if err := asynq.DispatchJob(&payload); err != nil {
		log.Error().
			Err(err).
			Str("session_id", sess.ID).
			Str("job_id", jobID).
			Msg("Failed to enqueue export job")
		return response.FailWithCode(c, constants.CodeExportDispatch)
	}

	data := map[string]interface{}{
		"message":   "Export job dispatched!",
		"job_id":    jobID,
		"timestamp": utils.NowFormatted(),
	}
	return response.Success(c, data)
}

// generateExportJobId for unique jobid
func generateExportJobID(sessionID string, req *report.ExportRequest) string {
	uniqueId := fmt.Sprintf("%s-%s-%s-%d",
		sessionID,
		req.Table,
		req.Title,
		utils.Now().UnixNano(),
	)
	hash := md5.Sum([]byte(uniqueId))
	return fmt.Sprintf("pdf_%x", hash[:8])
}

// JobStatus returns the state of an async export job
func JobStatus(c echo.Context) error {
	jobID := c.Param("id")

	status, err := reportexport.LoadStatus(c.Request().Context(), jobID)
	if err != nil {
		return response.FailWithCode(c, constants.CodeJobNotFound)
	}
	return response.Success(c, status)
}
