package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
)

const defaultPublicHost = "https://storage.googleapis.com"

var (
	errUploaderClient = errors.New("storage: client is required")
	errUploaderBucket = errors.New("storage: bucket name is required")
	errUploaderObject = errors.New("storage: object name is required")
	errUploaderBody   = errors.New("storage: upload body is required")
)

// Uploader writes objects into a Cloud Storage bucket and reports the public
// URL the stored object is served from.
type Uploader struct {
	client  *gcs.Client
	bucket  string
	baseURL string
}

// UploaderOption customises Uploader behaviour.
type UploaderOption func(*Uploader)

// WithPublicBaseURL overrides the URL prefix used when composing public object
// URLs, e.g. a CDN host fronting the bucket.
func WithPublicBaseURL(base string) UploaderOption {
	return func(u *Uploader) {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			u.baseURL = trimmed
		}
	}
}

// NewUploader constructs an Uploader bound to one bucket.
func NewUploader(client *gcs.Client, bucket string, opts ...UploaderOption) (*Uploader, error) {
	if client == nil {
		return nil, errUploaderClient
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errUploaderBucket
	}

	uploader := &Uploader{client: client, bucket: bucket}
	for _, opt := range opts {
		if opt != nil {
			opt(uploader)
		}
	}
	return uploader, nil
}

// Upload streams body into the bucket under objectPath and returns the public URL.
func (u *Uploader) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error) {
	if u == nil || u.client == nil {
		return "", errUploaderClient
	}
	objectPath = strings.TrimSpace(objectPath)
	if objectPath == "" {
		return "", errUploaderObject
	}
	if body == nil {
		return "", errUploaderBody
	}

	writer := u.client.Bucket(u.bucket).Object(objectPath).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}

	if _, err := io.Copy(writer, body); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("storage: write object %s: %w", objectPath, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("storage: finalize object %s: %w", objectPath, err)
	}

	return u.PublicURL(objectPath), nil
}

// Delete removes an object; missing objects are not an error.
func (u *Uploader) Delete(ctx context.Context, objectPath string) error {
	if u == nil || u.client == nil {
		return errUploaderClient
	}
	objectPath = strings.TrimSpace(objectPath)
	if objectPath == "" {
		return errUploaderObject
	}
	err := u.client.Bucket(u.bucket).Object(objectPath).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

// PublicURL composes the URL the object is publicly readable at.
func (u *Uploader) PublicURL(objectPath string) string {
	objectPath = strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	escaped := escapeObjectPath(objectPath)
	if u.baseURL != "" {
		return fmt.Sprintf("%s/%s", u.baseURL, escaped)
	}
	return fmt.Sprintf("%s/%s/%s", defaultPublicHost, u.bucket, escaped)
}

func escapeObjectPath(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
