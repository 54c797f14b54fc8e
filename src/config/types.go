package config

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

type Environment string

const (
	Live Environment = "live"
	Beta Environment = "beta"
	Dev  Environment = "dev"
)

type ForumsConfig struct {
	Env      Environment
	Addr     string
	BaseUrl  string
	LogLevel zerolog.Level
	Postgres PostgresConfig
	Auth     AuthConfig
	S3       S3Config
	Avatars  AvatarConfig
	Perf     PerfConfig
	Dev      DevConfig
}

type PostgresConfig struct {
	User     string
	Password string
	Hostname string
	Port     int
	DbName   string
	LogLevel tracelog.LogLevel
	MinConn  int32
	MaxConn  int32

	// How long to keep retrying the first connection at startup.
	ConnectTimeout time.Duration
}

type AuthConfig struct {
	CookieDomain string
	CookieSecure bool
	SessionLife  time.Duration
}

type S3Config struct {
	AccessKeyID         string
	SecretAccessKey     string
	Region              string
	Bucket              string
	AssetsPathPrefix    string
	Endpoint            string
	UsePathStyle        bool
	AssetsPublicUrlRoot string

	// Address for the local development S3 server. Empty disables it.
	DevServerAddr string
}

type AvatarConfig struct {
	MaxBytes int64
	Size     int
}

type PerfConfig struct {
	SlowRequestThreshold time.Duration
	KeepRequests         int
}

func (info PostgresConfig) DSN() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%d dbname=%s", info.User, info.Password, info.Hostname, info.Port, info.DbName)
}

type DevConfig struct {
	LiveTemplates bool // load templates from disk on every render
}
