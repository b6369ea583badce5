package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string
	DBUrl         string
	TokenSecret   string
	TokenTTL      time.Duration
	Debug         bool
	LogJSON       bool
	RedisURL      string
	SessionTTL    time.Duration
	RateLimit     float64
	RateBurst     int
	AdminUser     string
	AdminPassword string
	SweepSchedule string
}

// File is the optional YAML configuration. Zero values leave the setting
// from flags and environment untouched.
type File struct {
	Addr          string        `yaml:"addr"`
	DBUrl         string        `yaml:"db_url"`
	TokenSecret   string        `yaml:"token_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	Debug         bool          `yaml:"debug"`
	LogJSON       bool          `yaml:"log_json"`
	RedisURL      string        `yaml:"redis_url"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	RateLimit     float64       `yaml:"rate_limit"`
	RateBurst     int           `yaml:"rate_burst"`
	AdminUser     string        `yaml:"admin_user"`
	AdminPassword string        `yaml:"admin_password"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

// Load reads .env (if present), then the command line, whose defaults come
// from QUEST_* environment variables, then the YAML file named by -config.
func Load(args []string) (cfg Config, err error) {
	err = godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf(".env: %w", err)
	}

	fl := flag.NewFlagSet("quest-editor", flag.ContinueOnError)
	host := fl.String("host", env("QUEST_HOST", "0.0.0.0"), "listen host name")
	port := fl.Uint("port", uint(envInt("QUEST_PORT", 80)), "listen port number")
	fl.StringVar(&cfg.DBUrl, "db-url", env("QUEST_DB_URL", "quest.sqlite"), "path to SQLite3 DB file, or postgres:// URL")
	fl.StringVar(&cfg.TokenSecret, "token-secret", env("QUEST_TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	ttl := fl.Uint("token-ttl", uint(envInt("QUEST_TOKEN_TTL", 120)), "token TTL in seconds")
	fl.BoolVar(&cfg.Debug, "debug", env("QUEST_DEBUG", "") == "true", "log at DEBUG level")
	fl.BoolVar(&cfg.LogJSON, "log-json", env("QUEST_LOG_JSON", "") == "true", "log one JSON object per line")
	fl.StringVar(&cfg.RedisURL, "redis-url", env("QUEST_REDIS_URL", ""), "redis URL for respondent sessions (default in memory)")
	fl.DurationVar(&cfg.SessionTTL, "session-ttl", envDuration("QUEST_SESSION_TTL", 2*time.Hour), "idle respondent session lifetime")
	fl.Float64Var(&cfg.RateLimit, "rate-limit", envFloat("QUEST_RATE_LIMIT", 10), "public API requests per second per IP")
	fl.IntVar(&cfg.RateBurst, "rate-burst", envInt("QUEST_RATE_BURST", 20), "public API burst per IP")
	fl.StringVar(&cfg.AdminUser, "admin-user", env("QUEST_ADMIN_USER", ""), "admin user to create or update on startup")
	fl.StringVar(&cfg.AdminPassword, "admin-password", env("QUEST_ADMIN_PASSWORD", ""), "password of -admin-user")
	fl.StringVar(&cfg.SweepSchedule, "sweep-schedule", env("QUEST_SWEEP_SCHEDULE", "@every 10m"), "cron spec of the idle session cleanup")
	file := fl.String("config", env("QUEST_CONFIG", ""), "optional YAML configuration file")
	err = fl.Parse(args)
	if err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(*host, strconv.Itoa(int(*port)))
	cfg.TokenTTL = time.Duration(*ttl) * time.Second

	if *file != "" {
		err = cfg.applyFile(*file)
		if err != nil {
			return
		}
	}

	err = cfg.validate()
	return
}

func (cfg *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f := File{}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	set(&cfg.Addr, f.Addr)
	set(&cfg.DBUrl, f.DBUrl)
	set(&cfg.TokenSecret, f.TokenSecret)
	set(&cfg.TokenTTL, f.TokenTTL)
	set(&cfg.Debug, f.Debug)
	set(&cfg.LogJSON, f.LogJSON)
	set(&cfg.RedisURL, f.RedisURL)
	set(&cfg.SessionTTL, f.SessionTTL)
	set(&cfg.RateLimit, f.RateLimit)
	set(&cfg.RateBurst, f.RateBurst)
	set(&cfg.AdminUser, f.AdminUser)
	set(&cfg.AdminPassword, f.AdminPassword)
	set(&cfg.SweepSchedule, f.SweepSchedule)
	return nil
}

func set[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func (cfg Config) validate() error {
	switch {
	case cfg.TokenSecret == "":
		return errors.New("missing parameter -token-secret")
	case cfg.AdminUser != "" && cfg.AdminPassword == "":
		return errors.New("missing parameter -admin-password")
	case cfg.RateLimit <= 0 || cfg.RateBurst <= 0:
		return errors.New("-rate-limit and -rate-burst must be positive")
	case cfg.SessionTTL <= 0:
		return errors.New("-session-ttl must be positive")
	}
	return nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
