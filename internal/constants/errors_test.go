package constants

import "testing"

func TestGetHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"success", CodeSuccess, 200},
		{"bad request range", CodePivotConfig, 400},
		{"unauthorized range", CodeInvalidToken, 401},
		{"rate limit before unprocessable", CodeRateLimit, 429},
		{"unprocessable", CodeUnprocessable, 422},
		{"forbidden", CodeInsufficientPerms, 403},
		{"not found", CodeSessionNotFound, 404},
		{"empty result code is in 404 range", CodeEmptyResult, 404},
		{"ingest errors map to 400", CodeIngestParse, 400},
		{"export errors map to 500", CodeExportRender, 500},
		{"conflict", CodeDuplicateJob, 409},
		{"internal", CodeRedisError, 500},
		{"bad gateway", CodeBadGateway, 502},
		{"unavailable", CodeRedisUnavailable, 503},
		{"gateway timeout", CodeGatewayTimeout, 504},
		{"unknown code defaults to 500", 99999, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetHTTPStatusFromCode(tt.code); got != tt.want {
				t.Errorf("GetHTTPStatusFromCode(%d) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	if msg := GetErrorMessage(CodeEmptyResult); msg != "No data for the selected configuration" {
		t.Errorf("unexpected message for empty result: %q", msg)
	}
	if msg := GetErrorMessage(12345); msg != "Unknown error" {
		t.Errorf("unknown code must return fallback, got %q", msg)
	}
}

// Every defined code must carry a message so handlers never emit a bare code.
func TestAllCodesHaveMessages(t *testing.T) {
	codes := []int{
		CodeSuccess,
		CodeBadRequest, CodeInvalidJSON, CodeValidationFailed,
		CodeMissingParameter, CodeInvalidParameter, CodePivotConfig, CodeUploadInvalid,
		CodeUnauthorized, CodeMissingAuth, CodeInvalidToken, CodeExpiredToken,
		CodeForbidden, CodeInsufficientPerms,
		CodeNotFound, CodeEmptyResult, CodeSessionNotFound, CodeJobNotFound,
		CodeGeneratorUnknown, CodeEndpointNotFound,
		CodeIngestParse, CodeUploadTooLarge, CodeUploadExtension,
		CodeJoinColumnMissing, CodeNoDataset,
		CodeConflict, CodeDuplicateJob,
		CodeUnprocessable, CodeRateLimit,
		CodeInternalError, CodeRedisError, CodeJobProcessingError,
		CodeConfigurationError, CodeFileSystemError,
		CodeExportRender, CodeExportDispatch,
		CodeBadGateway, CodeServiceUnavailable, CodeRedisUnavailable,
		CodeMaintenanceMode, CodeGatewayTimeout,
	}
	for _, code := range codes {
		if _, ok := ErrorMessages[code]; !ok {
			t.Errorf("code %d has no message", code)
		}
	}
}
