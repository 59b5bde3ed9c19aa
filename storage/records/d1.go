package records

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	cloudflare "github.com/cloudflare/cloudflare-go/v6"
	cfd1 "github.com/cloudflare/cloudflare-go/v6/d1"
	"github.com/cloudflare/cloudflare-go/v6/option"

	"github.com/indieinfra/capture/config"
	storageutil "github.com/indieinfra/capture/storage/util"
)

// D1RecordStore writes records to Cloudflare D1 via the HTTP API, using the
// same table layout as SQLRecordStore.
type D1RecordStore struct {
	cfg    *config.D1RecordStrategy
	client *cloudflare.Client
	table  string
}

// NewD1RecordStore builds a store and ensures the table exists.
func NewD1RecordStore(cfg *config.D1RecordStrategy) (*D1RecordStore, error) {
	return newD1RecordStoreWithClient(cfg, nil)
}

// newD1RecordStoreWithClient lets tests inject an HTTP client; nil uses the default.
func newD1RecordStoreWithClient(cfg *config.D1RecordStrategy, httpClient *http.Client) (*D1RecordStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("d1 records config is nil")
	}

	store := &D1RecordStore{
		cfg:    cfg,
		client: buildD1Client(cfg, httpClient),
		table:  storageutil.DeriveTableName(cfg.TablePrefix, "uploads"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

func buildD1Client(cfg *config.D1RecordStrategy, httpClient *http.Client) *cloudflare.Client {
	opts := []option.RequestOption{option.WithAPIToken(strings.TrimSpace(cfg.APIToken))}

	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	if base := strings.TrimSpace(cfg.Endpoint); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}

	return cloudflare.NewClient(opts...)
}

// initSchema doubles as a connectivity and credentials check.
func (rs *D1RecordStore) initSchema(ctx context.Context) error {
	if err := rs.executeQuery(ctx, rs.schemaQuery(), nil); err != nil {
		return fmt.Errorf("d1 initialization failed (check account_id, database_id, and api_token): %w", err)
	}
	return nil
}

func (rs *D1RecordStore) schemaQuery() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
id TEXT PRIMARY KEY,
user_id TEXT NOT NULL,
photo_url TEXT,
video_url TEXT,
photo_mirror_url TEXT,
video_mirror_url TEXT,
latitude REAL,
longitude REAL,
location_url TEXT,
location_mirror_url TEXT,
created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, rs.table)
}

// insertQuery leaves absent columns out of the statement so they fall back to
// NULL, since D1 only binds string parameters.
func (rs *D1RecordStore) insertQuery(record *Record) (string, []any) {
	names := make([]string, 0, len(columns))
	params := make([]any, 0, len(columns))
	for i, v := range record.values() {
		if v == nil {
			continue
		}
		names = append(names, columns[i])
		params = append(params, v)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		rs.table,
		strings.Join(names, ", "),
		storageutil.PlaceholderQuestion.Placeholders(len(names)),
	)

	return query, params
}

func (rs *D1RecordStore) Insert(ctx context.Context, record *Record) error {
	if err := Prepare(record); err != nil {
		return err
	}

	query, params := rs.insertQuery(record)
	if err := rs.executeQuery(ctx, query, params); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

func (rs *D1RecordStore) executeQuery(ctx context.Context, sql string, params []any) error {
	body := cfd1.DatabaseQueryParamsBodyD1SingleQuery{Sql: cloudflare.F(sql)}
	if len(params) > 0 {
		body.Params = cloudflare.F(convertParams(params))
	}

	resp, err := rs.client.D1.Database.Query(ctx, rs.cfg.DatabaseID, cfd1.DatabaseQueryParams{
		AccountID: cloudflare.F(strings.TrimSpace(rs.cfg.AccountID)),
		Body:      body,
	})
	if err != nil {
		return err
	}

	if resp != nil && len(resp.Result) > 0 && !resp.Result[0].Success {
		return fmt.Errorf("d1 query execution failed")
	}

	return nil
}

// convertParams renders parameters in D1's string form.
func convertParams(params []any) []string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		switch v := p.(type) {
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		case time.Time:
			out = append(out, v.UTC().Format("2006-01-02 15:04:05"))
		default:
			out = append(out, fmt.Sprint(p))
		}
	}

	return out
}
