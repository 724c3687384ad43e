package postgres

import (
	"context"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var supportedPGQueryKeys = map[string]struct{}{
	"application_name":              {},
	"channel_binding":               {},
	"client_encoding":               {},
	"connect_timeout":               {},
	"gssencmode":                    {},
	"keepalives":                    {},
	"keepalives_count":              {},
	"keepalives_idle":               {},
	"keepalives_interval":           {},
	"krbsrvname":                    {},
	"options":                       {},
	"passfile":                      {},
	"pool_health_check_period":      {},
	"pool_max_conn_idle_time":       {},
	"pool_max_conn_lifetime":        {},
	"pool_max_conn_lifetime_jitter": {},
	"pool_max_conns":                {},
	"pool_min_conns":                {},
	"service":                       {},
	"sslcert":                       {},
	"sslcrl":                        {},
	"sslkey":                        {},
	"sslmode":                       {},
	"sslpassword":                   {},
	"sslrootcert":                   {},
	"target_session_attrs":          {},
}

// Connect opens a pool for rawURL after normalizing driver-specific URL schemes.
func Connect(ctx context.Context, rawURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(normalizeDatabaseURL(rawURL))
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

// normalizeDatabaseURL rewrites ORM-style schemes to postgres:// and drops query keys that neither libpq nor pgxpool knows.
func normalizeDatabaseURL(rawURL string) string {
	normalized := strings.TrimSpace(rawURL)
	for _, prefix := range []string{"postgresql+psycopg://", "postgresql://"} {
		if strings.HasPrefix(normalized, prefix) {
			normalized = "postgres://" + strings.TrimPrefix(normalized, prefix)
			break
		}
	}

	parsed, err := url.Parse(normalized)
	if err != nil || parsed.Scheme != "postgres" {
		return normalized
	}

	filtered := make(url.Values)
	for key, values := range parsed.Query() {
		if _, ok := supportedPGQueryKeys[key]; ok {
			for _, v := range values {
				filtered.Add(key, v)
			}
		}
	}
	parsed.RawQuery = filtered.Encode()
	return parsed.String()
}
