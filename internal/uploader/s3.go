package uploader

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Uploader stores cover images in an S3-compatible bucket fronted by a
// public base URL. Used instead of the HTTP host when the deployment owns
// its own object storage.
type S3Uploader struct { // implements AssetUploader
	client *s3.Client

	bucket        string
	keyPrefix     string
	publicBaseURL string
}

func NewS3Uploader(accessKeyID, accessKeySecret, baseEndpoint, bucket, keyPrefix, publicBaseURL string) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(baseEndpoint)
	})

	return &S3Uploader{
		client:        client,
		bucket:        bucket,
		keyPrefix:     keyPrefix,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	ext := path.Ext(filename)
	key := u.keyPrefix + uuid.New().String() + ext

	contentType := http.DetectContentType(data)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading to bucket: %w", err)
	}

	url := u.publicBaseURL + "/" + key
	uploadLogger.Debug().Str("key", key).Str("url", url).Msg("Cover image uploaded to bucket")
	return url, nil
}
