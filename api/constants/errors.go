package constants

import "fmt"

// ============================================================================
// AUTHENTICATION ERRORS
// ============================================================================

const (
	ErrMissingToken       = "Authorization token is required"
	ErrInvalidToken       = "Your session has expired or is invalid. Please login again"
	ErrInvalidCredentials = "Incorrect username or password"
	ErrInactiveUser       = "User account is inactive"
	ErrUnauthorized       = "You are not authorized to perform this action"
	ErrUserNotFound       = "User not found"
	ErrUsernameTaken      = "Username already registered"
	ErrEmailTaken         = "Email already registered"
)

// ============================================================================
// PLANNING ERRORS
// ============================================================================

const (
	ErrPCANotFound        = "PCA not found"
	ErrPCADuplicate       = "PCA with this numero_contratacao already exists"
	ErrPCAHasQualificacao = "PCA is referenced by one or more qualification dossiers"
	ErrMissingUpload      = "A file must be uploaded in the 'file' field"
	ErrUploadTooLarge     = "Uploaded file exceeds the size limit of %d MB"
)

// ============================================================================
// QUALIFICATION & BIDDING ERRORS
// ============================================================================

const (
	ErrQualificacaoNotFound   = "Qualification dossier not found"
	ErrQualificacaoDuplicate  = "A qualification dossier with this NUP already exists"
	ErrQualificacaoHasBidding = "Qualification dossier is referenced by a bidding record"
	ErrLicitacaoNotFound      = "Bidding record not found"
	ErrPCAReferenceMissing    = "numero_contratacao does not match any PCA"
	ErrNUPReferenceMissing    = "NUP does not match any qualification dossier"
)

// ============================================================================
// ACCESS REQUEST ERRORS
// ============================================================================

const (
	ErrAccessRequestNotFound = "Access request not found"
	ErrAccessRequestPending  = "You already have a pending access request"
	ErrAccessRequestClosed   = "Access request has already been processed"
)

// ============================================================================
// REPORT ERRORS
// ============================================================================

const (
	ErrUnknownReport     = "Unknown report '%s'"
	ErrUnknownReportFmt  = "Unknown report format '%s'. Expected excel or json"
	ErrUnknownDataSource = "Unknown data source '%s'"
	ErrUnknownField      = "Unknown field '%s' for data source '%s'"
	ErrNoFieldsSelected  = "At least one field must be selected"
	ErrNoReportData      = "No records match the report filters"
)

// ============================================================================
// INPUT VALIDATION ERRORS
// ============================================================================

const (
	ErrInvalidJSON          = "Invalid JSON body"
	ErrMissingRequiredField = "Required field '%s' is missing"
	ErrInvalidFieldValue    = "Invalid value for field '%s': %s"
	ErrInvalidID            = "Invalid ID specified"
	ErrInvalidPagination    = "skip and limit must be non-negative integers"
)

// ============================================================================
// GENERAL ERRORS
// ============================================================================

const (
	ErrInternalServer   = "Internal server error. Please contact support"
	ErrDatabase         = "Database error. Please try again"
	ErrMethodNotAllowed = "Method Not Allowed"
)

// ============================================================================
// SUCCESS MESSAGES
// ============================================================================

const (
	SuccessCreated  = "Record created successfully"
	SuccessUpdated  = "Record updated successfully"
	SuccessDeleted  = "Record deleted successfully"
	SuccessApproved = "Access request approved"
	SuccessRejected = "Access request rejected"
	SuccessImported = "Import completed"
)

// FormatFieldError formats an error for a specific field
func FormatFieldError(fieldName string, reason string) string {
	return fmt.Sprintf(ErrInvalidFieldValue, fieldName, reason)
}

// FormatMissingFieldError formats a missing field error
func FormatMissingFieldError(fieldName string) string {
	return fmt.Sprintf(ErrMissingRequiredField, fieldName)
}

// ============================================================================
// USER ADMIN ERRORS
// ============================================================================

const (
	ErrCannotDeleteSelf = "You cannot delete your own account"
	ErrCannotDemoteSelf = "You cannot change your own access level or deactivate yourself"
	ErrUserHasRecords   = "User owns records and cannot be deleted. Deactivate the account instead"
)
