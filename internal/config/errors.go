package config

const (
	// Store errors
	ErrInitializePostsFmt = "Failed to initialize posts: %v"
	ErrLoadPostFailed     = "Failed to load this blog post. It may not exist or has been removed."
	ErrDeletePostFailed   = "Failed to delete the post. Please try again."

	// Editor errors
	ErrEditorSessionExpired = "Editor session expired"
	ErrGenericStoreMessage  = "The post could not be saved. Please try again."
	ErrGenericUploadMessage = "The cover image could not be uploaded. Please try again."

	// Config errors
	ErrWriteConfigContentFmt = "Failed to write config content: %v"
)
