package handler

import (
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/detection-reporter/config"
	"github.com/benedict-erwin/detection-reporter/internal/constants"
	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/internal/ingest"
	"github.com/benedict-erwin/detection-reporter/internal/session"
	"github.com/benedict-erwin/detection-reporter/pkg/geoip"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
	"github.com/benedict-erwin/detection-reporter/pkg/response"
	"github.com/benedict-erwin/detection-reporter/pkg/utils"
)

// CreateSession starts a new analysis session
func CreateSession(c echo.Context) error {
	sess := session.GetStore().Create()

	data := map[string]interface{}{
		"session_id": sess.ID,
		"created_at": utils.FormatTime(sess.CreatedAt),
	}
	return response.Success(c, data)
}

// loadSession resolves the :id path parameter. Second return is false
// when the session is unknown and an error response was already sent.
func loadSession(c echo.Context) (*session.Session, bool) {
	sess, found := session.GetStore().Get(c.Request().Context(), c.Param("id"))
	if !found {
		response.FailWithCode(c, constants.CodeSessionNotFound)
		return nil, false
	}
	return sess, true
}

// UploadDataset ingests one or more CSV/TSV exports into a session.
// The first file of a fresh session becomes the primary dataset; later
// files are joined on CompositeID or Hostname when possible, otherwise
// kept as named secondary tables.
func UploadDataset(c echo.Context) error {
	log := logger.WithScope("UploadDataset")

	sess, ok := loadSession(c)
	if !ok {
		return nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return response.FailWithCodeAndMessage(c, constants.CodeBadRequest, "multipart form expected")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return response.FailWithCodeAndMessage(c, constants.CodeMissingParameter, "no files uploaded")
	}

	uploadCfg := config.Get().Upload
	maxBytes := int64(uploadCfg.MaxSizeMB) << 20
	allowed := uploadCfg.AllowedExtensions
	if len(allowed) == 0 {
		allowed = []string{".csv", ".tsv", ".txt"}
	}

	results := make([]map[string]interface{}, 0, len(files))
	for _, fh := range files {
		if maxBytes > 0 && fh.Size > maxBytes {
			return response.FailWithCodeAndMessage(c, constants.CodeUploadTooLarge, fh.Filename)
		}
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !extAllowed(ext, allowed) {
			return response.FailWithCodeAndMessage(c, constants.CodeUploadExtension, fh.Filename)
		}

		src, err := fh.Open()
		if err != nil {
			log.Error().Err(err).Str("file", fh.Filename).Msg("Failed to open upload")
			return response.FailWithCode(c, constants.CodeFileSystemError)
		}
		rs, err := ingest.ReadTable(src)
		src.Close()
		if err != nil {
			log.Warn().Err(err).Str("file", fh.Filename).Msg("Failed to parse upload")
			return response.FailWithCodeAndMessage(c, constants.CodeIngestParse, fh.Filename)
		}
		ingest.TagFieldKinds(rs)

		role := attachTable(sess, fh.Filename, rs)
		log.Info().
			Str("session_id", sess.ID).
			Str("file", fh.Filename).
			Str("role", role).
			Int("records", rs.Len()).
			Msg("Dataset ingested")

		results = append(results, map[string]interface{}{
			"file":    fh.Filename,
			"role":    role,
			"records": rs.Len(),
		})
	}

	if sess.Primary != nil {
		if filled := ingest.EnrichCountry(sess.Primary, geoip.Get()); filled > 0 {
			log.Info().Str("session_id", sess.ID).Int("filled", filled).Msg("Country enrichment applied")
		}
	}

	session.GetStore().Save(c.Request().Context(), sess)

	data := map[string]interface{}{
		"session_id": sess.ID,
		"files":      results,
		"fields":     fieldSummary(sess.Primary),
	}
	return response.Success(c, data)
}

// attachTable merges an uploaded table into the session and names its role.
func attachTable(sess *session.Session, filename string, rs *report.RecordSet) string {
	if sess.Primary == nil {
		sess.Primary = rs
		return "primary"
	}

	_, primaryHasKey := ingest.FindCompositeIDColumn(sess.Primary.FieldNames())
	_, uploadHasKey := ingest.FindCompositeIDColumn(rs.FieldNames())
	if primaryHasKey && uploadHasKey {
		ingest.MergeByCompositeID(sess.Primary, rs)
		return "composite-merge"
	}

	if sess.Primary.HasField("Hostname") && rs.HasField("Hostname") {
		ingest.MergeHostExport(sess.Primary, rs)
		return "host-merge"
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if sess.Tables == nil {
		sess.Tables = make(map[string]*report.RecordSet)
	}
	sess.Tables[name] = rs
	return "table:" + name
}

func extAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

// GetFields returns the schema of the session's primary dataset.
func GetFields(c echo.Context) error {
	sess, ok := loadSession(c)
	if !ok {
		return nil
	}
	if sess.Primary == nil {
		return response.FailWithCode(c, constants.CodeNoDataset)
	}

	data := map[string]interface{}{
		"session_id": sess.ID,
		"records":    sess.Primary.Len(),
		"fields":     fieldSummary(sess.Primary),
		"tables":     tableNames(sess),
	}
	return response.Success(c, data)
}

func fieldSummary(rs *report.RecordSet) []map[string]string {
	if rs == nil {
		return []map[string]string{}
	}
	out := make([]map[string]string, 0, len(rs.Fields))
	for _, f := range rs.Fields {
		out = append(out, map[string]string{
			"name": f.Name,
			"kind": string(f.Kind),
		})
	}
	return out
}

func tableNames(sess *session.Session) []string {
	names := make([]string, 0, len(sess.Tables))
	for name := range sess.Tables {
		names = append(names, name)
	}
	return names
}
