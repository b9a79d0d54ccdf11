package logger

// Standard field names for consistent structured logging across clipd.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldJobID     = "job_id"
	FieldURL       = "url"
	FieldURLHash   = "url_hash"
	FieldRequester = "requester"

	// Components
	FieldComponent = "component"

	// Operations
	FieldMethod = "method"
	FieldPath   = "path"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount = "count"
	FieldSize  = "size"

	// Status
	FieldStatus = "status"

	// Files
	FieldFile     = "file"
	FieldFilename = "filename"
	FieldBinary   = "binary"

	// Network
	FieldAddress = "address"
	FieldPort    = "port"
)
