package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Attachments are stored content-addressed: the object key is derived from the
// SHA-256 of the payload, so re-uploading the same file is a no-op and URLs
// never change for a given content.
const attachmentPrefix = "attachments/"

// getGoogleClient initializes a Google Cloud Storage client.
// Prefer ADC (service account / GOOGLE_APPLICATION_CREDENTIALS).
// If you need to provide explicit JSON (e.g. locally), set GCS_CREDENTIALS_JSON.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		client, err := storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// GCSAttachmentStore stores parcel attachment payloads in a GCS bucket.
type GCSAttachmentStore struct{}

// Add uploads the payload and returns its content hash.
func (GCSAttachmentStore) Add(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty attachment payload")
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	bucketName := os.Getenv("GCS_BUCKET")
	if bucketName == "" {
		return "", errors.New("GCS_BUCKET is required")
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	objectName := attachmentPrefix + hash

	// Same content, same object: skip the upload when it already exists.
	if _, err := client.Bucket(bucketName).Object(objectName).Attrs(ctx); err == nil {
		return hash, nil
	}

	mimeType := http.DetectContentType(data)

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = mimeType
	wc.Metadata = map[string]string{
		"x-goog-acl": "public-read",
	}
	if _, err := wc.Write(data); err != nil {
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}

	return hash, nil
}

// PublicURL returns the externally reachable URL for a stored content hash.
func (GCSAttachmentStore) PublicURL(hash string) string {
	return BuildObjectAccessURL(attachmentPrefix + hash)
}

// Remove deletes a stored object. Missing objects are not an error.
func (GCSAttachmentStore) Remove(ctx context.Context, hash string) error {
	bucketName := os.Getenv("GCS_BUCKET")
	if bucketName == "" {
		return errors.New("GCS_BUCKET is required")
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.Bucket(bucketName).Object(attachmentPrefix + hash).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return err
	}
	return nil
}

func BuildObjectAccessURL(objectKey string) string {
	base := strings.TrimSpace(os.Getenv("STORAGE_ACCESS_BASE_URL"))
	if base != "" {
		return strings.TrimRight(base, "/") + "/" + objectKey
	}

	gcsURL := strings.TrimSpace(os.Getenv("GCS_URL"))
	gcsBucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if gcsURL != "" && gcsBucket != "" {
		return "https://" + gcsURL + "/" + gcsBucket + "/" + objectKey
	}

	return objectKey
}
