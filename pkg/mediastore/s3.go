package mediastore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Config holds the settings needed to reach the bucket.
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Store implements Store on top of an S3 bucket. The bucket is expected
// to serve uploaded objects publicly at the standard virtual-hosted URL.
type S3Store struct {
	client *s3.S3
	bucket string
	region string
}

// NewS3Store creates an S3-backed media store.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AWS session: %w", err)
	}

	return &S3Store{
		client: s3.New(sess),
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// Upload puts the payload into the bucket and returns its public URL
// together with the object key used for later deletion.
func (s *S3Store) Upload(ctx context.Context, p Payload) (*Object, error) {
	key := BuildKey(p.Folder, p.Filename)

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(p.Content),
		ContentType: aws.String(p.ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &Object{
		URL:      s.ObjectURL(key),
		RemoteID: key,
	}, nil
}

// Delete removes the object identified by remoteID from the bucket.
func (s *S3Store) Delete(ctx context.Context, remoteID string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(remoteID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", remoteID, err)
	}
	return nil
}

// ObjectURL builds the permanent retrieval URL for an object key.
func (s *S3Store) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
