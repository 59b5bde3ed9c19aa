package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/indieinfra/capture/config"
	"github.com/indieinfra/capture/storage/media"
)

// uploadAPI is the part of the Cloudinary upload API the store relies on.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// StoreImpl hands media to Cloudinary and reports the secure delivery URL.
type StoreImpl struct {
	api uploadAPI
}

func NewCloudinaryMediaStore(cfg *config.CloudinaryMediaStrategy) (*StoreImpl, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cloudinary media config is nil")
	}

	client, err := cld.NewFromParams(strings.TrimSpace(cfg.CloudName), strings.TrimSpace(cfg.ApiKey), strings.TrimSpace(cfg.ApiSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}

	if prefix := strings.TrimSpace(cfg.UploadPrefix); prefix != "" {
		client.Config.API.UploadPrefix = strings.TrimSuffix(prefix, "/")
	}

	return &StoreImpl{api: &client.Upload}, nil
}

func (s *StoreImpl) Upload(ctx context.Context, asset *media.Asset) (*media.Stored, error) {
	if asset == nil || asset.Body == nil {
		return nil, fmt.Errorf("asset and body are required")
	}

	var file interface{} = asset.Body
	if asset.Kind == media.KindRaw {
		// Raw payloads never existed as files; send them inline.
		body, err := io.ReadAll(asset.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read raw asset: %w", err)
		}
		file = media.DataURI(asset.ContentType, body)
	}

	params := uploader.UploadParams{
		Folder:       asset.Folder,
		PublicID:     asset.PublicID,
		ResourceType: string(asset.Kind),
	}

	res, err := s.api.Upload(ctx, file, params)
	if err != nil {
		return nil, fmt.Errorf("upload to cloudinary failed: %w", err)
	}

	// The SDK reports API level failures in the result, not as an error.
	if res == nil {
		return nil, errors.New("upload to cloudinary failed: empty response")
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("upload to cloudinary failed: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return nil, errors.New("upload to cloudinary failed: no secure url returned")
	}

	return &media.Stored{
		URL:  res.SecureURL,
		Key:  res.PublicID,
		Kind: asset.Kind,
	}, nil
}

func (s *StoreImpl) Delete(ctx context.Context, stored *media.Stored) error {
	if stored == nil || stored.Key == "" {
		return fmt.Errorf("stored asset has no public id")
	}

	res, err := s.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     stored.Key,
		ResourceType: string(stored.Kind),
	})
	if err != nil {
		return fmt.Errorf("delete from cloudinary failed: %w", err)
	}

	if res != nil && res.Error.Message != "" {
		return fmt.Errorf("delete from cloudinary failed: %s", res.Error.Message)
	}

	return nil
}
