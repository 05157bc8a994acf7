// AngelaMos | 2026
// uploader.go

package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

var allowedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

type Uploader struct {
	store    Store
	tempDir  string
	maxBytes int64
	logger   *slog.Logger
}

func NewUploader(store Store, tempDir string, maxBytes int64, logger *slog.Logger) (*Uploader, error) {
	if err := os.MkdirAll(tempDir, 0o750); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Uploader{
		store:    store,
		tempDir:  tempDir,
		maxBytes: maxBytes,
		logger:   logger,
	}, nil
}

func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// UploadImage spools the part to the temp dir, validates and compresses it,
// then stores it under folder. The temp file is removed whatever the outcome.
func (u *Uploader) UploadImage(
	ctx context.Context,
	fh *multipart.FileHeader,
	folder string,
) (Asset, error) {
	if fh.Size > u.maxBytes {
		return Asset{}, core.ValidationError(
			fmt.Sprintf("%s exceeds the %d byte upload limit", fh.Filename, u.maxBytes),
		)
	}

	tmpPath, err := u.spool(fh)
	if err != nil {
		return Asset{}, err
	}
	defer u.removeTemp(tmpPath)

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return Asset{}, fmt.Errorf("read spooled upload: %w", err)
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return Asset{}, core.ValidationError(
			fmt.Sprintf("%s is not a supported image type", fh.Filename),
		)
	}

	processed, err := Compress(data)
	if err != nil {
		return Asset{}, core.ValidationError(fmt.Sprintf("%s could not be processed", fh.Filename))
	}

	key := path.Join(strings.Trim(folder, "/"), uuid.NewString()+processed.Extension)
	asset, err := u.store.Put(ctx, key, processed.ContentType, processed.Data)
	if err != nil {
		return Asset{}, core.UpstreamError("asset store", err)
	}

	u.logger.Debug("image uploaded",
		"key", key,
		"original_bytes", len(data),
		"stored_bytes", len(processed.Data),
	)

	return asset, nil
}

func (u *Uploader) UploadImages(
	ctx context.Context,
	files []*multipart.FileHeader,
	folder string,
) (Assets, error) {
	assets := make(Assets, 0, len(files))
	for _, fh := range files {
		asset, err := u.UploadImage(ctx, fh, folder)
		if err != nil {
			u.Discard(ctx, assets...)
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// Discard deletes assets best-effort. Failures are logged and swallowed.
func (u *Uploader) Discard(ctx context.Context, assets ...Asset) {
	for _, a := range assets {
		if a.ID == "" {
			continue
		}
		if err := u.store.Delete(ctx, a.ID); err != nil {
			u.logger.Warn("asset delete failed", "asset_id", a.ID, "error", err)
		}
	}
}

func (u *Uploader) spool(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close() //nolint:errcheck // read-only

	tmp, err := os.CreateTemp(u.tempDir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, io.LimitReader(src, u.maxBytes+1)); err != nil {
		_ = tmp.Close() //nolint:errcheck // copy already failed
		u.removeTemp(tmp.Name())
		return "", fmt.Errorf("spool upload: %w", err)
	}

	if err := tmp.Close(); err != nil {
		u.removeTemp(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return tmp.Name(), nil
}

func (u *Uploader) removeTemp(p string) {
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		u.logger.Warn("temp upload cleanup failed", "path", p, "error", err)
	}
}
