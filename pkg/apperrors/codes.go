package apperrors

// Error codes - organized by domain

// Authentication errors (AUTH_*)
const (
	ErrCodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	ErrCodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "AUTH_TOKEN_INVALID"
	ErrCodeLoginLocked        = "AUTH_LOGIN_LOCKED"
)

// Validation errors (VALIDATION_*)
const (
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeMissingField     = "VALIDATION_MISSING_FIELD"
	ErrCodeInvalidCategory  = "VALIDATION_INVALID_CATEGORY"
	ErrCodeInvalidSlot      = "VALIDATION_INVALID_SLOT"
	ErrCodeMissingFile      = "VALIDATION_MISSING_FILE"
	ErrCodeEmptyFile        = "VALIDATION_EMPTY_FILE"
	ErrCodeInvalidFileType  = "VALIDATION_INVALID_FILE_TYPE"
)

// Resource errors (RESOURCE_*)
const (
	ErrCodeRecordNotFound = "RESOURCE_RECORD_NOT_FOUND"
	ErrCodeAdminNotFound  = "RESOURCE_ADMIN_NOT_FOUND"
)

// Internal errors (INTERNAL_*)
const (
	ErrCodeStoreError      = "INTERNAL_STORE_ERROR"
	ErrCodeUploadFailed    = "INTERNAL_UPLOAD_FAILED"
	ErrCodeUnexpectedError = "INTERNAL_UNEXPECTED_ERROR"
)
