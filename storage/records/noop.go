package records

import (
	"context"
	"log"
)

type NoopRecordStore struct{}

func (*NoopRecordStore) Insert(ctx context.Context, record *Record) error {
	log.Printf("Received no-op record insert for user %q - nothing persisted", record.UserID)
	return nil
}
