package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"github.com/indieinfra/capture/config"
)

type postgrestInserter interface {
	insert(table string, record *Record) error
}

type postgrestClient struct {
	client *postgrest.Client
}

func (c *postgrestClient) insert(table string, record *Record) error {
	_, _, err := c.client.From(table).Insert(record, false, "", "minimal", "").Execute()
	return err
}

// SupabaseRecordStore inserts records through the project's PostgREST API.
type SupabaseRecordStore struct {
	api   postgrestInserter
	table string
}

func NewSupabaseRecordStore(cfg *config.SupabaseRecordStrategy) (*SupabaseRecordStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("supabase records config is nil")
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.Url), "/")
	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}

	client := postgrest.NewClient(base+"/rest/v1", schema, map[string]string{
		"apikey":        cfg.AnonKey,
		"Authorization": "Bearer " + cfg.AnonKey,
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("failed to create postgrest client: %w", client.ClientError)
	}

	return &SupabaseRecordStore{
		api:   &postgrestClient{client: client},
		table: cfg.Table,
	}, nil
}

func (s *SupabaseRecordStore) Insert(ctx context.Context, record *Record) error {
	if err := Prepare(record); err != nil {
		return err
	}

	// postgrest-go has no context support; honour cancellation before the call.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.api.insert(s.table, record); err != nil {
		return fmt.Errorf("failed to insert record into %s: %w", s.table, err)
	}

	return nil
}
