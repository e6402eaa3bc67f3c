package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience       string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	TokenTTL          time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	MessageRateLimit  int           `mapstructure:"message_rate_limit" yaml:"message_rate_limit"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "quickchat.db",
		JWTSecret:         "change-me",
		JWTIssuer:         "quickchat",
		JWTAudience:       "quickchat",
		TokenTTL:          24 * time.Hour,
		MessageRateLimit:  120, // inbound frames per connection per minute; 0 disables
		LogLevel:          "info",
	}
}
