package handlers

// Common error message constants shared across handlers
const (
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgInvalidID          = "Invalid id"
)
