package db

import (
	"context"
	"regexp"
	"time"

	"git.hoosierptk.dev/forums/forums/src/config"
	"git.hoosierptk.dev/forums/forums/src/logging"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/perf"
	"git.hoosierptk.dev/forums/forums/src/utils"
	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/jpillora/backoff"
)

// Creates a single connection to the forums database. Not safe for
// concurrent use; migrations and the seeder use this.
func NewConn() *pgx.Conn {
	return NewConnWithConfig(config.PostgresConfig{})
}

func NewConnWithConfig(cfg config.PostgresConfig) *pgx.Conn {
	cfg = overrideDefaultConfig(cfg)

	pgcfg, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		panic(oops.New(err, "failed to parse database config"))
	}
	pgcfg.Tracer = newTracer(cfg)

	var conn *pgx.Conn
	err = retryUntil(cfg.ConnectTimeout, "database", func(ctx context.Context) error {
		conn, err = pgx.ConnectConfig(ctx, pgcfg)
		return err
	})
	if err != nil {
		panic(oops.New(err, "failed to connect to database"))
	}

	return conn
}

// Creates a connection pool for the forums database. Safe for concurrent use.
func NewConnPool() *pgxpool.Pool {
	return NewConnPoolWithConfig(config.PostgresConfig{})
}

func NewConnPoolWithConfig(cfg config.PostgresConfig) *pgxpool.Pool {
	cfg = overrideDefaultConfig(cfg)

	pgcfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		panic(oops.New(err, "failed to parse database config"))
	}
	pgcfg.MinConns = cfg.MinConn
	pgcfg.MaxConns = cfg.MaxConn
	pgcfg.ConnConfig.Tracer = newTracer(cfg)

	pool, err := pgxpool.NewWithConfig(context.Background(), pgcfg)
	if err != nil {
		panic(oops.New(err, "failed to create database connection pool"))
	}

	// The pool connects lazily, so ping to find out now if the database is
	// reachable, waiting a bit in case it's still starting up.
	err = retryUntil(cfg.ConnectTimeout, "database", pool.Ping)
	if err != nil {
		panic(oops.New(err, "failed to reach database"))
	}

	return pool
}

func overrideDefaultConfig(cfg config.PostgresConfig) config.PostgresConfig {
	return config.PostgresConfig{
		User:           utils.OrDefault(cfg.User, config.Config.Postgres.User),
		Password:       utils.OrDefault(cfg.Password, config.Config.Postgres.Password),
		Hostname:       utils.OrDefault(cfg.Hostname, config.Config.Postgres.Hostname),
		Port:           utils.OrDefault(cfg.Port, config.Config.Postgres.Port),
		DbName:         utils.OrDefault(cfg.DbName, config.Config.Postgres.DbName),
		LogLevel:       utils.OrDefault(cfg.LogLevel, config.Config.Postgres.LogLevel),
		MinConn:        utils.OrDefault(cfg.MinConn, config.Config.Postgres.MinConn),
		MaxConn:        utils.OrDefault(cfg.MaxConn, config.Config.Postgres.MaxConn),
		ConnectTimeout: utils.OrDefault(cfg.ConnectTimeout, config.Config.Postgres.ConnectTimeout),
	}
}

// Calls f with exponential backoff until it succeeds or timeout passes.
// Only used at startup; requests never retry.
func retryUntil(timeout time.Duration, what string, f func(ctx context.Context) error) error {
	b := &backoff.Backoff{
		Min:    200 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}
	deadline := time.Now().Add(timeout)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := f(ctx)
		cancel()
		if err == nil {
			return nil
		}
		wait := b.Duration()
		if time.Now().Add(wait).After(deadline) {
			return err
		}
		logging.Warn().Err(err).Str("target", what).Dur("retry in", wait).Msg("connection failed, retrying")
		time.Sleep(wait)
	}
}

func newTracer(cfg config.PostgresConfig) pgx.QueryTracer {
	return multiTracer{
		&tracelog.TraceLog{
			Logger:   zerologadapter.NewLogger(*logging.GlobalLogger()),
			LogLevel: cfg.LogLevel,
		},
		requestPerfTracer{},
	}
}

type multiTracer []pgx.QueryTracer

var _ pgx.QueryTracer = multiTracer{}

func (mt multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, t := range mt {
		ctx = t.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (mt multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, t := range mt {
		t.TraceQueryEnd(ctx, conn, data)
	}
}

var reQueryName = regexp.MustCompile("---- (.*)\n")

func GetQueryName(sql string) (string, bool) {
	m := reQueryName.FindStringSubmatch(sql)
	if m != nil {
		return m[1], true
	}
	return "", false
}

type perfBlockContextKey struct{}

type requestPerfTracer struct{}

var _ pgx.QueryTracer = requestPerfTracer{}

func (pt requestPerfTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	name := "Unknown query"
	if n, ok := GetQueryName(data.SQL); ok {
		name = n
	}
	b := perf.ExtractPerf(ctx).StartBlock("SQL", name)
	return context.WithValue(ctx, perfBlockContextKey{}, b)
}

func (pt requestPerfTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	if b, ok := ctx.Value(perfBlockContextKey{}).(*perf.BlockHandle); ok {
		b.End()
	}
}
