package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/clipstream/apiserver/internal/storage"
	"github.com/google/uuid"
)

const (
	avatarMaxWidth = 512
	coverMaxWidth  = 1280
)

// AssetService normalizes uploaded images and pushes them to object
// storage. The rest of the backend only ever stores the hosted URL
// it returns, never the binary.
type AssetService struct {
	storage *storage.Storage
}

func NewAssetService(store *storage.Storage) *AssetService {
	return &AssetService{storage: store}
}

// UploadAvatar stores an avatar image and returns its hosted URL.
func (s *AssetService) UploadAvatar(ctx context.Context, data []byte) (string, error) {
	return s.upload(ctx, "avatars", data, avatarMaxWidth)
}

// UploadCoverImage stores a cover image and returns its hosted URL.
func (s *AssetService) UploadCoverImage(ctx context.Context, data []byte) (string, error) {
	return s.upload(ctx, "covers", data, coverMaxWidth)
}

func (s *AssetService) upload(ctx context.Context, prefix string, data []byte, maxWidth int) (string, error) {
	normalized, ctype, err := NormalizeImage(data, maxWidth)
	if err != nil {
		return "", err
	}

	ext := "jpg"
	if ctype == mimePNG {
		ext = "png"
	}
	key := fmt.Sprintf("%s/%s.%s", prefix, uuid.NewString(), ext)

	reader := bytes.NewReader(normalized)
	if err := s.storage.Put(ctx, key, reader, int64(len(normalized)), ctype); err != nil {
		return "", err
	}
	return s.storage.PublicURL(key), nil
}
