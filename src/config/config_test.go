package config

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load(viper.New())

	assert.Equal(t, Dev, cfg.Env)
	assert.Equal(t, 100, cfg.Avatars.Size)
	assert.Equal(t, 14*24*time.Hour, cfg.Auth.SessionLife)
	assert.NotEmpty(t, cfg.BaseUrl)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("base_url", "https://forums.example.com/")
	v.Set("log_level", "debug")
	v.Set("postgres.log_level", "error")
	v.Set("auth.session_life", "1h")

	cfg := Load(v)

	assert.Equal(t, "https://forums.example.com", cfg.BaseUrl)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, tracelog.LogLevelError, cfg.Postgres.LogLevel)
	assert.Equal(t, time.Hour, cfg.Auth.SessionLife)
}

func TestDSN(t *testing.T) {
	pg := PostgresConfig{User: "u", Password: "p", Hostname: "db", Port: 5433, DbName: "forums"}
	assert.Equal(t, "user=u password=p host=db port=5433 dbname=forums", pg.DSN())
}
