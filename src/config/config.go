package config

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config is loaded once at startup from settings.toml and FORUMS_* environment
// variables. Anything not set falls back to values suitable for local
// development.
var Config ForumsConfig

func init() {
	Config = Load(viper.New())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", string(Dev))
	v.SetDefault("addr", ":9490")
	v.SetDefault("base_url", "http://localhost:9490")
	v.SetDefault("log_level", "info")

	v.SetDefault("postgres.user", "forums")
	v.SetDefault("postgres.password", "password")
	v.SetDefault("postgres.hostname", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.db_name", "forums")
	v.SetDefault("postgres.log_level", "warn")
	v.SetDefault("postgres.min_conn", 2)
	v.SetDefault("postgres.max_conn", 16)
	v.SetDefault("postgres.connect_timeout", "30s")

	v.SetDefault("auth.cookie_domain", "")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.session_life", "336h")

	v.SetDefault("s3.access_key_id", "dummy")
	v.SetDefault("s3.secret_access_key", "dummy")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "forums-dev")
	v.SetDefault("s3.assets_path_prefix", "dev")
	v.SetDefault("s3.endpoint", "http://localhost:9491")
	v.SetDefault("s3.use_path_style", true)
	v.SetDefault("s3.assets_public_url_root", "http://localhost:9491/forums-dev/")
	v.SetDefault("s3.dev_server_addr", "localhost:9491")

	v.SetDefault("avatars.max_bytes", 1<<20)
	v.SetDefault("avatars.size", 100)

	v.SetDefault("perf.slow_request_threshold", "1s")
	v.SetDefault("perf.keep_requests", 200)

	v.SetDefault("dev.live_templates", false)
}

// Load reads configuration through the given viper instance. A missing
// settings file is not an error.
func Load(v *viper.Viper) ForumsConfig {
	_ = godotenv.Load()

	setDefaults(v)
	v.SetConfigName("settings")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.SetEnvPrefix("forums")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(err)
		}
	}

	logLevel, err := zerolog.ParseLevel(v.GetString("log_level"))
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	pgLogLevel, err := tracelog.LogLevelFromString(v.GetString("postgres.log_level"))
	if err != nil {
		pgLogLevel = tracelog.LogLevelWarn
	}

	return ForumsConfig{
		Env:      Environment(v.GetString("env")),
		Addr:     v.GetString("addr"),
		BaseUrl:  strings.TrimRight(v.GetString("base_url"), "/"),
		LogLevel: logLevel,
		Postgres: PostgresConfig{
			User:           v.GetString("postgres.user"),
			Password:       v.GetString("postgres.password"),
			Hostname:       v.GetString("postgres.hostname"),
			Port:           v.GetInt("postgres.port"),
			DbName:         v.GetString("postgres.db_name"),
			LogLevel:       pgLogLevel,
			MinConn:        v.GetInt32("postgres.min_conn"),
			MaxConn:        v.GetInt32("postgres.max_conn"),
			ConnectTimeout: v.GetDuration("postgres.connect_timeout"),
		},
		Auth: AuthConfig{
			CookieDomain: v.GetString("auth.cookie_domain"),
			CookieSecure: v.GetBool("auth.cookie_secure"),
			SessionLife:  durationOr(v.GetDuration("auth.session_life"), 14*24*time.Hour),
		},
		S3: S3Config{
			AccessKeyID:         v.GetString("s3.access_key_id"),
			SecretAccessKey:     v.GetString("s3.secret_access_key"),
			Region:              v.GetString("s3.region"),
			Bucket:              v.GetString("s3.bucket"),
			AssetsPathPrefix:    v.GetString("s3.assets_path_prefix"),
			Endpoint:            v.GetString("s3.endpoint"),
			UsePathStyle:        v.GetBool("s3.use_path_style"),
			AssetsPublicUrlRoot: v.GetString("s3.assets_public_url_root"),
			DevServerAddr:       v.GetString("s3.dev_server_addr"),
		},
		Avatars: AvatarConfig{
			MaxBytes: v.GetInt64("avatars.max_bytes"),
			Size:     v.GetInt("avatars.size"),
		},
		Perf: PerfConfig{
			SlowRequestThreshold: v.GetDuration("perf.slow_request_threshold"),
			KeepRequests:         v.GetInt("perf.keep_requests"),
		},
		Dev: DevConfig{
			LiveTemplates: v.GetBool("dev.live_templates"),
		},
	}
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func (c ForumsConfig) IsLive() bool {
	return c.Env == Live
}
