package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Provider errors
	ErrProviderUnavailable = fmt.Errorf("provider unavailable")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Search and selection errors
	ErrNoResults        = fmt.Errorf("no results found")
	ErrExpiredSelection = fmt.Errorf("selection expired or invalid")

	// Retrieval errors
	ErrNoMatchFound     = fmt.Errorf("no downloadable match found")
	ErrRetrievalFailed  = fmt.Errorf("retrieval failed")
	ErrFileTooLarge     = fmt.Errorf("file exceeds size limit")
	ErrDurationExceeded = fmt.Errorf("track exceeds duration limit")

	// Persistence errors
	ErrPersistenceFailed = fmt.Errorf("persistence failed")
	ErrNotFound          = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
