package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration, read from the environment and an optional .env file
type Config struct {
	Port                    string
	Env                     string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	JWTSecret               string
	JWTTTL                  time.Duration
	FirebaseCredentialsPath string
	Storage                 StorageConfig
	Moderation              ModerationConfig
}

// StorageConfig configures the image bucket
type StorageConfig struct {
	SupabaseURL string
	SupabaseKey string
	Bucket      string
	PublicURL   string
}

// ModerationConfig configures the content classifier and the verification policy
type ModerationConfig struct {
	URL             string
	APIKey          string
	Model           string
	Timeout         time.Duration
	MaxRetries      int
	Threshold       float64
	AllowReverify   bool
	BreakerFailures int
	BreakerOpen     time.Duration
}

const devJWTSecret = "supersecretjwtkey"

// Load reads the given env files (.env when none are given) and the environment into a Config
func Load(envFiles ...string) (*Config, error) {
	// a missing env file is fine; the environment may already be set
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:                    v.GetString("PORT"),
		Env:                     strings.ToLower(v.GetString("ENV")),
		PostgresConnStr:         v.GetString("POSTGRES_CONN_STR"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DATABASE"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		JWTTTL:                  v.GetDuration("JWT_TTL"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		Storage: StorageConfig{
			SupabaseURL: v.GetString("SUPABASE_URL"),
			SupabaseKey: v.GetString("SUPABASE_KEY"),
			Bucket:      v.GetString("BUCKET_NAME"),
			PublicURL:   v.GetString("STORAGE_PUBLIC_URL"),
		},
		Moderation: ModerationConfig{
			URL:             v.GetString("MODERATION_URL"),
			APIKey:          v.GetString("MODERATION_API_KEY"),
			Model:           v.GetString("MODERATION_MODEL"),
			Timeout:         v.GetDuration("MODERATION_TIMEOUT"),
			MaxRetries:      v.GetInt("MODERATION_MAX_RETRIES"),
			Threshold:       v.GetFloat64("MODERATION_THRESHOLD"),
			AllowReverify:   v.GetBool("MODERATION_ALLOW_REVERIFY"),
			BreakerFailures: v.GetInt("MODERATION_BREAKER_FAILURES"),
			BreakerOpen:     v.GetDuration("MODERATION_BREAKER_OPEN"),
		},
	}

	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = devJWTSecret
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "production")
	v.SetDefault("MONGO_DATABASE", "farmfeed")
	v.SetDefault("JWT_TTL", "72h")
	v.SetDefault("MODERATION_URL", "https://api.mistral.ai/v1/conversations")
	v.SetDefault("MODERATION_MODEL", "mistral-medium-latest")
	v.SetDefault("MODERATION_TIMEOUT", "20s")
	v.SetDefault("MODERATION_MAX_RETRIES", 2)
	v.SetDefault("MODERATION_THRESHOLD", 0.3)
	v.SetDefault("MODERATION_ALLOW_REVERIFY", false)
	v.SetDefault("MODERATION_BREAKER_FAILURES", 3)
	v.SetDefault("MODERATION_BREAKER_OPEN", "5m")
}

// IsDevelopment reports whether ENV is development
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	var errs []error
	if c.PostgresConnStr == "" {
		errs = append(errs, errors.New("POSTGRES_CONN_STR is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if c.JWTSecret == devJWTSecret && !c.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET must not be the development secret outside development"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Moderation.Threshold <= 0 || c.Moderation.Threshold >= 1 {
		errs = append(errs, errors.New("MODERATION_THRESHOLD must be between 0 and 1"))
	}
	if c.Moderation.MaxRetries < 0 {
		errs = append(errs, errors.New("MODERATION_MAX_RETRIES must not be negative"))
	}
	return errors.Join(errs...)
}
