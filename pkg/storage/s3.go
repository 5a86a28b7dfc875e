package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/d60-Lab/yatube/config"
)

const presignViewURLFor = 24 * time.Hour

type S3Storage struct {
	bucket    string
	prefix    string
	urlPrefix string
	client    *s3.S3
	uploader  *s3manager.Uploader
}

func NewS3Storage(cfg config.S3Config, urlPrefix string) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		// MinIO 等兼容实现
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}
	client := s3.New(sess)
	return &S3Storage{
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		urlPrefix: urlPrefix,
		client:    client,
		uploader:  s3manager.NewUploaderWithClient(client),
	}, nil
}

func (s *S3Storage) remoteKey(key string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return key, nil
	}
	return path.Join(s.prefix, key), nil
}

func (s *S3Storage) Save(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	remote, err := s.remoteKey(key)
	if err != nil {
		return 0, err
	}
	counter := &countingReader{r: r}
	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(remote),
		Body:   counter,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		return 0, err
	}
	return counter.n, nil
}

func (s *S3Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	remote, err := s.remoteKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(remote),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	remote, err := s.remoteKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(remote),
	})
	return err
}

// Serve 跳转到预签名下载地址
func (s *S3Storage) Serve(w http.ResponseWriter, r *http.Request, key string) {
	remote, err := s.remoteKey(key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(remote),
	})
	url, err := req.Presign(presignViewURLFor)
	if err != nil {
		http.Error(w, "storage unavailable", http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *S3Storage) URL(key string) string { return joinURL(s.urlPrefix, key) }

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
