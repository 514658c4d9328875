package constants

// Error Code Categories
// Format: XYZAB where:
// X = Category (4 client, 5 server)
// YZ = Subcategory
// AB = Specific error

const (
	// SUCCESS CODES (0xxxx)
	CodeSuccess = 0

	// CLIENT ERROR CODES (4xxxx)
	// 400 Bad Request (40xxx)
	CodeBadRequest       = 40000 // Generic bad request
	CodeInvalidJSON      = 40001 // Invalid JSON payload
	CodeValidationFailed = 40002 // Validation failed
	CodeMissingParameter = 40003 // Required parameter missing
	CodeInvalidParameter = 40004 // Invalid parameter value
	CodePivotConfig      = 40005 // Invalid pivot configuration
	CodeUploadInvalid    = 40006 // Upload rejected (type/size/parse)

	// 401 Unauthorized (41xxx)
	CodeUnauthorized = 41000 // Generic unauthorized
	CodeMissingAuth  = 41001 // Missing authentication
	CodeInvalidToken = 41002 // Invalid JWT token
	CodeExpiredToken = 41003 // Expired JWT token

	// 403 Forbidden (43xxx)
	CodeForbidden         = 43000 // Generic forbidden
	CodeInsufficientPerms = 43001 // Insufficient permissions

	// 404 Not Found / empty result (44xxx)
	CodeNotFound         = 44000 // Generic not found
	CodeEmptyResult      = 44001 // No data after filtering (soft, returned with HTTP 200)
	CodeSessionNotFound  = 44002 // Unknown or expired session
	CodeJobNotFound      = 44003 // Unknown export job
	CodeGeneratorUnknown = 44004 // Unknown analysis generator
	CodeEndpointNotFound = 44005 // Endpoint not found

	// 400 Ingest errors (45xxx)
	CodeIngestParse       = 45001 // CSV/TSV parse failure
	CodeUploadTooLarge    = 45002 // Upload exceeds configured size limit
	CodeUploadExtension   = 45003 // Disallowed file extension
	CodeJoinColumnMissing = 45004 // Join column not found in uploaded table
	CodeNoDataset         = 45005 // Session has no uploaded data yet

	// 409 Conflict (49xxx)
	CodeConflict     = 49000 // Generic conflict
	CodeDuplicateJob = 49001 // Duplicate job

	// 422 Unprocessable Entity (42xxx)
	CodeUnprocessable = 42000 // Generic unprocessable

	// 429 Too Many Requests (42xxx)
	CodeRateLimit = 42900 // Rate limit exceeded

	// SERVER ERROR CODES (5xxxx)
	// 500 Internal Server Error (50xxx)
	CodeInternalError      = 50000 // Generic internal error
	CodeRedisError         = 50001 // Redis error
	CodeJobProcessingError = 50002 // Export job processing error
	CodeConfigurationError = 50003 // Configuration error
	CodeFileSystemError    = 50004 // File system error

	// Export errors (46xxx)
	CodeExportRender   = 46001 // CSV/PDF rendering error
	CodeExportDispatch = 46002 // Failed to enqueue export job

	// 502 Bad Gateway (52xxx)
	CodeBadGateway = 52000 // Generic bad gateway

	// 503 Service Unavailable (53xxx)
	CodeServiceUnavailable = 53000 // Generic service unavailable
	CodeRedisUnavailable   = 53001 // Redis unavailable
	CodeMaintenanceMode    = 53002 // Maintenance mode

	// 504 Gateway Timeout (54xxx)
	CodeGatewayTimeout = 54000 // Generic gateway timeout
)

// Error Code Messages - for consistent error messaging
var ErrorMessages = map[int]string{
	CodeSuccess: "Success",

	// Client Errors (4xxxx)
	CodeBadRequest:       "Bad request",
	CodeInvalidJSON:      "Invalid JSON payload",
	CodeValidationFailed: "Validation failed",
	CodeMissingParameter: "Required parameter missing",
	CodeInvalidParameter: "Invalid parameter value",
	CodePivotConfig:      "Invalid pivot configuration",
	CodeUploadInvalid:    "Upload rejected",

	CodeUnauthorized: "Unauthorized",
	CodeMissingAuth:  "Authentication required: provide a Bearer token",
	CodeInvalidToken: "Invalid JWT token",
	CodeExpiredToken: "Token has expired",

	CodeForbidden:         "Forbidden",
	CodeInsufficientPerms: "Insufficient permissions",

	CodeNotFound:         "Not found",
	CodeEmptyResult:      "No data for the selected configuration",
	CodeSessionNotFound:  "Session not found or expired",
	CodeJobNotFound:      "Export job not found",
	CodeGeneratorUnknown: "Unknown analysis generator",
	CodeEndpointNotFound: "Endpoint not found",

	CodeIngestParse:       "Failed to parse uploaded file",
	CodeUploadTooLarge:    "Upload exceeds size limit",
	CodeUploadExtension:   "File type not allowed",
	CodeJoinColumnMissing: "Join column not found in uploaded table",
	CodeNoDataset:         "Session has no uploaded data",

	CodeConflict:     "Conflict",
	CodeDuplicateJob: "Duplicate job - already in queue",

	CodeUnprocessable: "Unprocessable entity",

	CodeRateLimit: "Rate limit exceeded",

	// Server Errors (5xxxx)
	CodeInternalError:      "Internal server error",
	CodeRedisError:         "Redis error",
	CodeJobProcessingError: "Export job processing error",
	CodeConfigurationError: "Configuration error",
	CodeFileSystemError:    "File system error",

	CodeExportRender:   "Export rendering error",
	CodeExportDispatch: "Failed to enqueue export job",

	CodeBadGateway:         "Bad gateway",
	CodeServiceUnavailable: "Service unavailable",
	CodeRedisUnavailable:   "Redis unavailable",
	CodeMaintenanceMode:    "Service under maintenance",
	CodeGatewayTimeout:     "Gateway timeout",
}

// GetErrorMessage returns the standard message for an error code
func GetErrorMessage(code int) string {
	if msg, exists := ErrorMessages[code]; exists {
		return msg
	}
	return "Unknown error"
}

// GetHTTPStatusFromCode returns the appropriate HTTP status code based on error code
func GetHTTPStatusFromCode(code int) int {
	switch {
	case code == 0:
		return 200
	case code >= 40000 && code < 41000:
		return 400
	case code >= 41000 && code < 42000:
		return 401
	case code >= 42900 && code < 43000:
		return 429
	case code >= 42000 && code < 43000:
		return 422
	case code >= 43000 && code < 44000:
		return 403
	case code >= 44000 && code < 45000:
		return 404
	case code >= 45000 && code < 46000:
		return 400
	case code >= 46000 && code < 47000:
		return 500
	case code >= 49000 && code < 50000:
		return 409
	case code >= 50000 && code < 51000:
		return 500
	case code >= 52000 && code < 53000:
		return 502
	case code >= 53000 && code < 54000:
		return 503
	case code >= 54000 && code < 55000:
		return 504
	default:
		return 500 // Default to internal server error
	}
}
