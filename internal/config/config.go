package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	EnvDev  = "dev"
	EnvTest = "test"
	EnvProd = "prod"

	DefaultEnvFile = ".env"
)

// env name -> variable prefix
var prefixes = map[string]string{
	EnvTest: "",
	EnvDev:  "DEV",
	EnvProd: "PROD",
}

type Admin struct {
	Email      string `validate:"required,email"`
	Password   string `validate:"required,min=8"`
	EmailToken string
}

type Log struct {
	Level  string
	Format string `validate:"oneof=console json"`
}

type RateLimit struct {
	Requests int           `validate:"gt=0"`
	Window   time.Duration `validate:"gt=0"`
}

type Redis struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0"`
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type SMTP struct {
	Host string
	Port int
}

type Config struct {
	Env           string        `validate:"oneof=dev test prod"`
	DBURL         string        `validate:"required"`
	SecretKey     string        `validate:"required,min=16"`
	Algorithm     string        `validate:"oneof=HS256 HS384 HS512"`
	TokenExpire   time.Duration `validate:"gt=0"`
	RefreshExpire time.Duration `validate:"gt=0"`
	ResetExpire   time.Duration `validate:"gt=0"`
	TokenPath     string        `validate:"required"`
	HTTPAddr      string        `validate:"required"`
	ServerHost    string        `validate:"required,url"`
	AutoMigrate   bool
	DropEnvs      []string
	Admin         Admin
	Log           Log
	RateLimit     RateLimit
	Redis         Redis
	Kafka         Kafka
	SMTP          SMTP
}

// ShouldDropTables reports whether the schema is rebuilt from scratch on startup.
func (c *Config) ShouldDropTables() bool {
	return slices.Contains(c.DropEnvs, c.Env)
}

var (
	mu    sync.Mutex
	cache = map[string]*Config{}
)

// Get returns the process-wide settings for env, loading them on first use.
func Get(env string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if cfg, ok := cache[env]; ok {
		return cfg, nil
	}
	cfg, err := Load(env, DefaultEnvFile)
	if err != nil {
		return nil, err
	}
	cache[env] = cfg
	return cfg, nil
}

// CurrentEnv resolves ENV_STATE from the process environment or the env file.
func CurrentEnv() string {
	v := viper.New()
	v.SetDefault("env_state", EnvDev)
	_ = readEnvFile(v, DefaultEnvFile, "")
	v.AutomaticEnv()
	return strings.ToLower(strings.TrimSpace(v.GetString("env_state")))
}

// Load reads the settings of env without touching the cache.
func Load(env, envFile string) (*Config, error) {
	prefix, ok := prefixes[env]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q", env)
	}

	v := viper.New()
	setDefaults(v, env)
	if err := readEnvFile(v, envFile, prefix); err != nil {
		return nil, err
	}
	if prefix != "" {
		v.SetEnvPrefix(prefix)
	}
	v.AutomaticEnv()

	requests, window, err := parseRateLimits(v.GetString("rate_limits"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:           env,
		DBURL:         v.GetString("db_url"),
		SecretKey:     v.GetString("secret_key"),
		Algorithm:     strings.ToUpper(v.GetString("algorithm")),
		TokenExpire:   seconds(v, "token_expire_seconds"),
		RefreshExpire: seconds(v, "refresh_expire_seconds"),
		ResetExpire:   seconds(v, "reset_expire_seconds"),
		TokenPath:     strings.Trim(v.GetString("token_path"), "/"),
		HTTPAddr:      v.GetString("http_addr"),
		ServerHost:    strings.TrimRight(v.GetString("server_host"), "/"),
		AutoMigrate:   v.GetBool("auto_migrate"),
		DropEnvs:      splitList(v.GetString("drop_envs")),
		Admin: Admin{
			Email:      v.GetString("admin_email"),
			Password:   v.GetString("admin_password"),
			EmailToken: v.GetString("admin_email_token"),
		},
		Log: Log{
			Level:  v.GetString("log_level"),
			Format: strings.ToLower(v.GetString("log_format")),
		},
		RateLimit: RateLimit{Requests: requests, Window: window},
		Redis: Redis{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Kafka: Kafka{
			Brokers: splitList(v.GetString("kafka_brokers")),
			Topic:   v.GetString("kafka_topic"),
		},
		SMTP: SMTP{
			Host: v.GetString("smtp_host"),
			Port: v.GetInt("smtp_port"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
			}
			return nil, fmt.Errorf("invalid %s config: %s", env, strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("db_url", "mysql://root:@localhost:3306/bicxchange")
	v.SetDefault("secret_key", "O07h5iGxzRsV2xgS90hv-GxJkk57QhkmqDXN69WF5UA")
	v.SetDefault("algorithm", "HS512")
	v.SetDefault("token_expire_seconds", 3600)
	v.SetDefault("refresh_expire_seconds", 7*24*3600)
	v.SetDefault("reset_expire_seconds", 300)
	v.SetDefault("token_path", "api/v1/auth/token")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("server_host", "http://localhost:8080")
	v.SetDefault("auto_migrate", false)
	v.SetDefault("drop_envs", EnvTest)
	v.SetDefault("admin_email", "admin@sample.com")
	v.SetDefault("admin_password", "12345678")
	v.SetDefault("admin_email_token", "")
	v.SetDefault("log_level", "DEBUG")
	v.SetDefault("log_format", "console")
	v.SetDefault("rate_limits", "10,60")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "bicxchange.events")
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)

	switch env {
	case EnvDev:
		v.SetDefault("db_url", "sqlite://dev.db")
		v.SetDefault("token_expire_seconds", 24*3600)
		v.SetDefault("reset_expire_seconds", 3600)
	case EnvProd:
		v.SetDefault("log_level", "INFO")
		v.SetDefault("log_format", "json")
	}
}

// readEnvFile layers a dotenv file between the defaults and the process env.
// Keys carrying prefix are stripped of it; an empty prefix takes every key.
func readEnvFile(v *viper.Viper, path, prefix string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}

	f := viper.New()
	f.SetConfigFile(path)
	f.SetConfigType("env")
	if err := f.ReadInConfig(); err != nil {
		return fmt.Errorf("read env file: %w", err)
	}

	p := strings.ToLower(prefix)
	if p != "" {
		p += "_"
	}
	for _, key := range f.AllKeys() {
		if !strings.HasPrefix(key, p) {
			continue
		}
		v.SetDefault(strings.TrimPrefix(key, p), f.Get(key))
	}
	return nil
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Second
}

// splitList accepts "a,b", "a b" and `["a","b"]`.
func splitList(raw string) []string {
	raw = strings.Trim(strings.TrimSpace(raw), "[]")
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `"'`)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseRateLimits reads "requests,window_seconds", e.g. "10,60" or "(10, 60)".
func parseRateLimits(raw string) (int, time.Duration, error) {
	raw = strings.Trim(strings.TrimSpace(raw), "()[]")
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("rate_limits: want \"requests,seconds\", got %q", raw)
	}
	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("rate_limits requests: %w", err)
	}
	window, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("rate_limits window: %w", err)
	}
	return requests, time.Duration(window) * time.Second, nil
}
