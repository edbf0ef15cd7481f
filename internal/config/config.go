package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Study    StudyConfig    `mapstructure:"study" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// Driver selects the storage backend: "postgres" for the pgx driver with
// goose migrations, "sqlite" for an embedded modernc database.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings. Tokens are issued by the
// external identity provider; the service only validates them against the
// shared secret.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// StudyConfig contains study-session engine settings.
type StudyConfig struct {
	// CardSeconds is the full per-card countdown in timed mode.
	CardSeconds int `mapstructure:"card_seconds" validate:"required,gt=0"`

	// TickMillis is the period of the timer feeding ticks into active
	// timed sessions.
	TickMillis int `mapstructure:"tick_millis" validate:"required,gt=0"`
}
