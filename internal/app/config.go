package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (BASKET_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (BASKET_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	OperatorKey string `usage:"shared key guarding operator endpoints" flag:"operator-key"`
	Razorpay    RazorpayConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// RazorpayConfig holds the payment gateway credentials and tuning. The key
// secret doubles as the HMAC key for callback signature verification.
type RazorpayConfig struct {
	KeyID     string        `usage:"Razorpay key id (BASKET_RAZORPAY_KEY_ID)" flag:"razorpay-key-id"`
	KeySecret string        `usage:"Razorpay key secret (BASKET_RAZORPAY_KEY_SECRET)" flag:"razorpay-key-secret"`
	BaseURL   string        `default:"" usage:"gateway API base URL override (tests)" flag:"razorpay-base-url"`
	Currency  string        `default:"INR" usage:"currency code sent with payment intents"`
	Timeout   time.Duration `default:"10s" usage:"outbound gateway call timeout"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and flags, then applies platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "BASKET",
		Files:     []string{"config.yaml", "/etc/basket/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set BASKET_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
		return nil, errors.New("gateway credentials are required: set BASKET_RAZORPAY_KEY_ID and BASKET_RAZORPAY_KEY_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT onto the BASKET_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
