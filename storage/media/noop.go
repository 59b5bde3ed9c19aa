package media

import (
	"context"
	"io"
	"log"
	"path"
)

type NoopMediaStore struct{}

func (ms *NoopMediaStore) Upload(ctx context.Context, asset *Asset) (*Stored, error) {
	log.Println("Received no-op media upload request - dumping request information")
	log.Printf("Kind: %v", asset.Kind)
	log.Printf("Folder: %v", asset.Folder)
	log.Printf("Filename: %v", asset.Filename)
	log.Printf("Content-Type: %v", asset.ContentType)

	n, err := io.Copy(io.Discard, asset.Body)
	if err != nil {
		return nil, err
	}
	log.Printf("Size: %v", n)

	name, ext := asset.ObjectName()
	if name == "" {
		name = string(asset.Kind)
	}
	key := path.Join(asset.Folder, name+ext)

	return &Stored{
		URL:  "https://noop.example.org/" + key,
		Key:  key,
		Kind: asset.Kind,
	}, nil
}

func (ms *NoopMediaStore) Delete(ctx context.Context, stored *Stored) error {
	log.Println("Received no-op media delete request - dumping request information")
	log.Printf("Url: %v", stored.URL)
	return nil
}
