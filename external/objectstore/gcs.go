package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/auth/credentials"
	"github.com/foxseedlab/fanreel/internal/objectstore"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

const gcsPublicHost = "https://storage.googleapis.com/"

type GCSConfig struct {
	Bucket          string
	CredentialsJSON string
}

type GCSStore struct {
	service *storage.Service
	bucket  string
	base    string
}

func NewGCSStore(ctx context.Context, cfg GCSConfig, extra ...option.ClientOption) (*GCSStore, error) {
	opts := extra
	if cfg.CredentialsJSON != "" {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			CredentialsJSON: []byte(cfg.CredentialsJSON),
			Scopes:          []string{storage.DevstorageReadWriteScope},
		})
		if err != nil {
			return nil, fmt.Errorf("detect credentials: %w", err)
		}
		opts = append([]option.ClientOption{option.WithAuthCredentials(creds)}, opts...)
	}
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	return &GCSStore{
		service: svc,
		bucket:  cfg.Bucket,
		base:    gcsPublicHost + cfg.Bucket + "/",
	}, nil
}

func (s *GCSStore) Put(ctx context.Context, path string, body []byte, contentType string) (string, error) {
	obj := &storage.Object{
		Name:         path,
		ContentType:  contentType,
		CacheControl: "no-cache, max-age=0",
	}
	_, err := s.service.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(body), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return s.base + path, nil
}

func (s *GCSStore) Get(ctx context.Context, path string) ([]byte, objectstore.Object, error) {
	meta, err := s.service.Objects.Get(s.bucket, path).Context(ctx).Do()
	if err != nil {
		return nil, objectstore.Object{}, s.translate(path, err)
	}
	body, _, err := s.download(ctx, path)
	if err != nil {
		return nil, objectstore.Object{}, err
	}
	return body, s.describe(meta), nil
}

func (s *GCSStore) List(ctx context.Context, prefix string) ([]objectstore.Object, error) {
	list := make([]objectstore.Object, 0)
	err := s.service.Objects.List(s.bucket).Prefix(prefix).Pages(ctx, func(page *storage.Objects) error {
		for _, item := range page.Items {
			list = append(list, s.describe(item))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GCSStore) Delete(ctx context.Context, url string) error {
	path, err := s.objectName(url)
	if err != nil {
		return err
	}
	if err := s.service.Objects.Delete(s.bucket, path).Context(ctx).Do(); err != nil {
		return s.translate(path, err)
	}
	return nil
}

func (s *GCSStore) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	path, err := s.objectName(url)
	if err != nil {
		return nil, "", err
	}
	return s.download(ctx, path)
}

func (s *GCSStore) download(ctx context.Context, path string) ([]byte, string, error) {
	resp, err := s.service.Objects.Get(s.bucket, path).Context(ctx).Download()
	if err != nil {
		return nil, "", s.translate(path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (s *GCSStore) objectName(url string) (string, error) {
	path, ok := strings.CutPrefix(url, s.base)
	if !ok || path == "" {
		return "", fmt.Errorf("%w: %s is not in bucket %s", objectstore.ErrNotFound, url, s.bucket)
	}
	return path, nil
}

func (s *GCSStore) describe(o *storage.Object) objectstore.Object {
	uploaded, err := time.Parse(time.RFC3339, o.Updated)
	if err != nil {
		uploaded, _ = time.Parse(time.RFC3339, o.TimeCreated)
	}
	return objectstore.Object{
		Path:        o.Name,
		URL:         s.base + o.Name,
		ContentType: o.ContentType,
		Size:        int64(o.Size),
		UploadedAt:  uploaded,
	}
}

func (s *GCSStore) translate(path string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", objectstore.ErrNotFound, path)
	}
	return err
}
