package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgInternal           = "Internal server error"
	ErrMsgInvalidUpload      = "Invalid multipart upload"
)

// maxUploadMemory bounds the in-memory part of a parsed multipart form
const maxUploadMemory = 32 << 20

// Audit action constants
const (
	AuditActionLogin        = "user.login"
	AuditActionLoginFailed  = "user.login.error"
	AuditActionLogout       = "user.logout"
	AuditActionReportExport = "report.export"
)
