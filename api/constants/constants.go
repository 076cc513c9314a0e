package constants

// Common error messages
const (
	ErrInvalidJSONShort   = "Invalid JSON"
	ErrInvalidRequestBody = "Invalid request body"
	ErrPleaseLogin        = "Please login to continue."
	ErrMethodNotAllowed   = "Method Not Allowed"
	ErrAuthUnavailable    = "Auth service unavailable"
	ErrRouteNotFound      = "404 - Route not found"
)

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeText = "Content-Type"
)

// Form fields of the import wizard
const (
	FieldAction      = "action"
	FieldImportType  = "import_type"
	FieldFile        = "file"
	FieldPreviewData = "preview_data"

	ActionUpload = "upload"
	ActionImport = "import"
)
