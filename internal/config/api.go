package config

// PostStore REST contract. Every operation lives under the blogs
// collection.
const (
	APIBlogsPath = "/api/blogs"
)

// Environment variable names read on top of config.yaml. Secrets never go
// in the YAML file.
const (
	EnvStoreBaseURL   = "INKWELL_STORE_URL"
	EnvUploadEndpoint = "INKWELL_UPLOAD_ENDPOINT"
	EnvUploadPreset   = "INKWELL_UPLOAD_PRESET"
	EnvS3AccessKeyID  = "INKWELL_S3_ACCESS_KEY_ID"
	EnvS3SecretKey    = "INKWELL_S3_SECRET_ACCESS_KEY"
)
