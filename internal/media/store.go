// AngelaMos | 2026
// store.go

package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/carterperez-dev/storefront-api/internal/config"
)

type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (Asset, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

func NewStore(ctx context.Context, cfg config.StorageConfig) (Store, func() error, error) {
	switch cfg.Driver {
	case "gcs":
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}

		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create gcs client: %w", err)
		}

		return NewGCSStore(client, cfg.Bucket, cfg.PublicBaseURL), client.Close, nil
	default:
		store, err := NewLocalStore(cfg.LocalDir, "/uploads")
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	}
}

type GCSStore struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

func NewGCSStore(client *storage.Client, bucket, publicBaseURL string) *GCSStore {
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com"
	}
	return &GCSStore{
		client:        client,
		bucket:        strings.TrimSpace(bucket),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *GCSStore) Put(
	ctx context.Context,
	key, contentType string,
	data []byte,
) (Asset, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	w.Metadata = map[string]string{
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close() //nolint:errcheck // write already failed
		return Asset{}, fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return Asset{}, fmt.Errorf("close object %s: %w", key, err)
	}

	return Asset{
		URL: fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, escapeKey(key)),
		ID:  key,
	}, nil
}

func (s *GCSStore) Delete(ctx context.Context, id string) error {
	err := s.client.Bucket(s.bucket).Object(id).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", id, err)
	}
	return nil
}

func (s *GCSStore) Ping(ctx context.Context) error {
	if _, err := s.client.Bucket(s.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket attrs: %w", err)
	}
	return nil
}

// LocalStore writes assets under a directory served by the API itself.
type LocalStore struct {
	root      string
	urlPrefix string
}

func NewLocalStore(root, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &LocalStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Put(
	_ context.Context,
	key, _ string,
	data []byte,
) (Asset, error) {
	full, err := s.resolve(key)
	if err != nil {
		return Asset{}, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return Asset{}, fmt.Errorf("create asset dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return Asset{}, fmt.Errorf("write asset %s: %w", key, err)
	}

	return Asset{URL: s.urlPrefix + "/" + escapeKey(key), ID: key}, nil
}

func (s *LocalStore) Delete(_ context.Context, id string) error {
	full, err := s.resolve(id)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete asset %s: %w", id, err)
	}
	return nil
}

func (s *LocalStore) Ping(_ context.Context) error {
	_, err := os.Stat(s.root)
	return err
}

func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid asset key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
