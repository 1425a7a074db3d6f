package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"dialtrack/internal/config"

	"github.com/redis/go-redis/v9"
)

// CredentialResolver resolves the telephony credentials to use for a user's
// calls, falling back to operator-wide defaults when the user has none (or
// when userID is empty, as for system-originated writes).
type CredentialResolver interface {
	Resolve(ctx context.Context, userID string) (Credentials, error)
}

// DBCredentialResolver reads per-user credentials from Postgres with a small
// redis cache in front; the operator defaults come from config.
//
// NOTE: assumes a user_provider_credentials table keyed by user_id.
type DBCredentialResolver struct {
	db       *sql.DB
	rdb      *redis.Client
	defaults Credentials
	cacheTTL time.Duration
}

func NewDBCredentialResolver(db *sql.DB, rdb *redis.Client, cfg config.ProviderConfig) *DBCredentialResolver {
	return &DBCredentialResolver{
		db:  db,
		rdb: rdb,
		defaults: Credentials{
			AccountID: cfg.AccountID,
			APIKey:    cfg.APIKey,
			APIToken:  cfg.APIToken,
		},
		cacheTTL: 5 * time.Minute,
	}
}

func (r *DBCredentialResolver) Resolve(ctx context.Context, userID string) (Credentials, error) {
	if userID == "" {
		return r.defaults, nil
	}

	cacheKey := "creds:" + userID
	if r.rdb != nil {
		if raw, err := r.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var creds Credentials
			if json.Unmarshal(raw, &creds) == nil && creds.Complete() {
				return creds, nil
			}
		}
	}

	const q = `
SELECT account_id, api_key, api_token
FROM user_provider_credentials
WHERE user_id = $1`
	var creds Credentials
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&creds.AccountID, &creds.APIKey, &creds.APIToken)
	if errors.Is(err, sql.ErrNoRows) {
		return r.defaults, nil
	}
	if err != nil {
		return Credentials{}, err
	}
	if !creds.Complete() {
		// Partial rows are treated as absent rather than breaking lookups.
		return r.defaults, nil
	}

	if r.rdb != nil {
		if raw, err := json.Marshal(creds); err == nil {
			if err := r.rdb.Set(ctx, cacheKey, raw, r.cacheTTL).Err(); err != nil {
				slog.Debug("credential cache write failed", "user_id", userID, "err", err)
			}
		}
	}
	return creds, nil
}

// StaticCredentialResolver always returns the same credentials.
// Used by tests and single-account deployments.
type StaticCredentialResolver struct {
	Creds Credentials
}

func (s StaticCredentialResolver) Resolve(ctx context.Context, userID string) (Credentials, error) {
	return s.Creds, nil
}
