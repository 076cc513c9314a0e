package constants

// ============================================================================
// AUTHENTICATION & SESSION ERRORS
// ============================================================================

const (
	ErrInvalidSession = "Your session has expired or is invalid. Please login again"
	ErrUserDisabled   = "Your account is disabled. Please contact administrator"
	ErrLoginFailed    = "Invalid email or password"
)

// ============================================================================
// FEE IMPORT ERRORS
// ============================================================================

const (
	ErrNoFileUploaded      = "Please choose a file to upload"
	ErrUnknownAction       = "Unknown action. Expected upload or import"
	ErrMissingPreviewData  = "Nothing to import. Upload a file and confirm the preview first"
	ErrUnsupportedFormat   = "Unsupported template format. Expected csv or xlsx"
	ErrTemplateFailed      = "Failed to build the template file"
	ErrImportFailed        = "The import could not be completed. Please try again"
	ErrRowsFailedToProcess = "Some rows failed validation. Fix them and upload the file again"
)

// ============================================================================
// FEE IMPORT MESSAGES
// ============================================================================

const (
	MsgImportPreviewReady = "File checked. Review the rows below and confirm the import"
	MsgLogoutSuccessful   = "logout successful"
)
