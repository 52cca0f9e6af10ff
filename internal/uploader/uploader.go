// Package uploader pushes cover images to the external asset host. The
// host is the sole owner of uploaded bytes; the client only keeps the
// returned URL.
package uploader

import (
	"context"

	"github.com/rs/zerolog"
)

var uploadLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	uploadLogger = l.With().Str("component", "uploader").Logger()
}

type AssetUploader interface {
	// Upload stores the raw image bytes and returns a stable public URL,
	// or fails without side effects visible to the caller.
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}
