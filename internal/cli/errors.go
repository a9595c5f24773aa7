package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Vault and config errors
	ErrVaultNotFound     = "VAULT_NOT_FOUND"
	ErrVaultNotSpecified = "VAULT_NOT_SPECIFIED"
	ErrConfigInvalid     = "CONFIG_INVALID"

	// File errors
	ErrFileNotFound     = "FILE_NOT_FOUND"
	ErrFileOutsideVault = "FILE_OUTSIDE_VAULT"
	ErrFileWriteError   = "FILE_WRITE_ERROR"

	// Note content errors
	ErrFrontmatterInvalid = "FRONTMATTER_INVALID"
	ErrValidationFailed   = "VALIDATION_FAILED"

	// Site errors
	ErrSiteNotConfigured     = "SITE_NOT_CONFIGURED"
	ErrExternalCommandFailed = "EXTERNAL_COMMAND_FAILED"

	// Snapshot errors
	ErrSnapshotError   = "SNAPSHOT_ERROR"
	ErrSnapshotMissing = "SNAPSHOT_MISSING"

	// Input errors
	ErrConfirmationRequired = "CONFIRMATION_REQUIRED"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnURLMissing         = "URL_MISSING"
	WarnFrontmatterInvalid = "FRONTMATTER_INVALID"
	WarnAmbiguousName      = "AMBIGUOUS_NAME"
)
