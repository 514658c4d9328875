package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/detection-reporter/config"
	"github.com/benedict-erwin/detection-reporter/internal/chart"
	"github.com/benedict-erwin/detection-reporter/internal/constants"
	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/pivot"
	"github.com/benedict-erwin/detection-reporter/internal/session"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
	"github.com/benedict-erwin/detection-reporter/pkg/response"
)

// resolveDataset picks the requested dataset from a session. Second
// return is false when an error response was already sent.
func resolveDataset(c echo.Context, sess *session.Session, table string) (*report.RecordSet, bool) {
	rs := sess.Primary
	if table != "" {
		tbl, ok := sess.Tables[table]
		if !ok {
			response.FailWithCodeAndMessage(c, constants.CodeNotFound, "unknown table "+table)
			return nil, false
		}
		rs = tbl
	}
	if rs == nil {
		response.FailWithCode(c, constants.CodeNoDataset)
		return nil, false
	}
	return rs, true
}

// buildPivot runs the top-n filter and table build for a request.
// Second return is false when an error response was already sent.
func buildPivot(c echo.Context, rs *report.RecordSet, cfg *report.PivotConfig) (*report.PivotTable, bool) {
	filtered := pivot.FilterTopN(rs, cfg.TopN)
	table, err := pivot.Build(filtered, cfg)
	if err != nil {
		if report.IsValidationError(err) {
			response.FailWithCodeAndMessage(c, constants.CodePivotConfig, err.Error())
		} else {
			logger.WithScope("pivot").Error().Err(err).Msg("Pivot build failed")
			response.FailWithCode(c, constants.CodeInternalError)
		}
		return nil, false
	}
	return table, true
}

// BuildPivot returns the pivot table for a configuration
func BuildPivot(c echo.Context) error {
	var req report.PivotRequest

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

	// Remember the working configuration for async export.
	sess.Config = req.Config
	session.GetStore().Save(c.Request().Context(), sess)

	data := map[string]interface{}{"table": table}
	if len(table.DataRows()) == 0 {
		return response.General(c, 200, constants.CodeEmptyResult, data,
			constants.GetErrorMessage(constants.CodeEmptyResult))
	}
	return response.Success(c, data)
}

// ComposeChart returns the chart spec for a configuration
func ComposeChart(c echo.Context) error {
	var req report.PivotRequest

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

	spec, err := chart.Compose(table, req.Config)
	if err != nil {
		if report.IsValidationError(err) {
			return response.FailWithCodeAndMessage(c, constants.CodePivotConfig, err.Error())
		}
		logger.WithScope("chart").Error().Err(err).Msg("Chart composition failed")
		return response.FailWithCode(c, constants.CodeInternalError)
	}

	sess.Config = req.Config
	session.GetStore().Save(c.Request().Context(), sess)

	if spec == nil {
		// Empty result is a soft outcome, not an error.
		return response.General(c, 200, constants.CodeEmptyResult, nil,
			constants.GetErrorMessage(constants.CodeEmptyResult))
	}

	theme := req.Theme
	if theme == "" {
		theme = config.Get().Report.DefaultTheme
	}
	spec = chart.ApplyTheme(spec, chart.NewStaticThemeProvider(config.Get().Report.DefaultTheme), theme)

	data := map[string]interface{}{"chart": spec}
	return response.Success(c, data)
}
