// Package storage deletes slide media blobs when their owning playlist
// goes away. Local disk for development, DigitalOcean Spaces (S3 API) in
// production. Uploads are handled by the admin front-end stack; the
// signage core only ever cleans up.
package storage

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type Storage interface {
	// Delete removes the blob a stored slide image URL points at.
	Delete(fileURL string) error
}

type LocalStorage struct {
	uploadDir string
}

type SpacesStorage struct {
	client *s3.S3
	bucket string
}

func NewLocalStorage(uploadDir string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir}
}

func NewSpacesStorage(endpoint, region, bucket, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client: s3.New(sess),
		bucket: bucket,
	}, nil
}

func (ls *LocalStorage) Delete(fileURL string) error {
	// local URLs are plain paths under the upload dir
	if !strings.HasPrefix(fileURL, ls.uploadDir) {
		return fmt.Errorf("refusing to delete outside upload dir: %s", fileURL)
	}
	if err := os.Remove(fileURL); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (ss *SpacesStorage) Delete(fileURL string) error {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return fmt.Errorf("invalid blob URL %q: %w", fileURL, err)
	}
	key := strings.TrimPrefix(parsed.Path, "/")

	_, err = ss.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from Spaces: %w", err)
	}
	return nil
}
