// Package clickhouse wraps database/sql with the connection options the
// candle and plan stores need.
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

type clientConfig struct {
	host            string
	port            int
	database        string
	user            string
	password        string
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	dialTimeout     time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
	useHTTP         bool
	asyncInsert     bool
	waitForAsync    bool
	maxExecTime     time.Duration
}

type ClientOption func(*clientConfig)

func WithHost(host string) ClientOption {
	return func(c *clientConfig) { c.host = host }
}

func WithPort(port int) ClientOption {
	return func(c *clientConfig) { c.port = port }
}

func WithDatabase(database string) ClientOption {
	return func(c *clientConfig) { c.database = database }
}

func WithCredentials(user, password string) ClientOption {
	return func(c *clientConfig) {
		c.user = user
		c.password = password
	}
}

func WithMaxConnections(maxOpen, maxIdle int) ClientOption {
	return func(c *clientConfig) {
		c.maxOpenConns = maxOpen
		c.maxIdleConns = maxIdle
	}
}

func WithTimeouts(dial, read, write time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.dialTimeout = dial
		c.readTimeout = read
		c.writeTimeout = write
	}
}

// WithHTTP switches from the native protocol to HTTP.
func WithHTTP(useHTTP bool) ClientOption {
	return func(c *clientConfig) { c.useHTTP = useHTTP }
}

// WithAsyncInsert enables server-side async inserts, optionally waiting for
// the flush to be acknowledged.
func WithAsyncInsert(enabled, wait bool) ClientOption {
	return func(c *clientConfig) {
		c.asyncInsert = enabled
		c.waitForAsync = wait
	}
}

func WithMaxExecutionTime(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.maxExecTime = d }
}

// Client owns the ClickHouse connection pool.
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and pings so a wrong address fails at startup.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		maxOpenConns:    10,
		maxIdleConns:    5,
		connMaxLifetime: 5 * time.Minute,
		dialTimeout:     5 * time.Second,
		readTimeout:     10 * time.Second,
		writeTimeout:    10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.host == "" {
		return nil, fmt.Errorf("host is required")
	}

	db, err := sql.Open("clickhouse", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(cfg.maxOpenConns)
	db.SetMaxIdleConns(cfg.maxIdleConns)
	db.SetConnMaxLifetime(cfg.connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &Client{db: db}, nil
}

// DB exposes the pool for the stores' queries.
func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Health(ctx context.Context) error { return c.db.PingContext(ctx) }

func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (cfg *clientConfig) dsn() string {
	scheme := "clickhouse://"
	if cfg.useHTTP {
		scheme = "clickhouse+http://"
	}
	base := fmt.Sprintf("%s%s:%s@%s:%d/%s",
		scheme, cfg.user, cfg.password, cfg.host, cfg.port, cfg.database)

	var params []string
	if cfg.dialTimeout > 0 {
		params = append(params, fmt.Sprintf("dial_timeout=%v", cfg.dialTimeout))
	}
	if cfg.readTimeout > 0 {
		params = append(params, fmt.Sprintf("read_timeout=%v", cfg.readTimeout))
	}
	// write_timeout stays client-side; not every server version accepts it
	if cfg.maxExecTime > 0 {
		params = append(params, fmt.Sprintf("max_execution_time=%d", int(cfg.maxExecTime.Seconds())))
	}
	if cfg.asyncInsert {
		params = append(params, "async_insert=1")
		if cfg.waitForAsync {
			params = append(params, "wait_for_async_insert=1")
		}
	}
	if len(params) == 0 {
		return base
	}
	return base + "?" + strings.Join(params, "&")
}
