package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Backend BackendConfig `mapstructure:"backend"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// BackendConfig contains the Cloud Tasks backend options. Every field is
// optional here: missing values are auto-detected from the GCP environment at
// backend construction time, and the backend itself fails fast when a required
// value is still absent after detection.
type BackendConfig struct {
	Project                 string `mapstructure:"project"`
	Location                string `mapstructure:"location"`
	TaskHandlerHost         string `mapstructure:"task_handler_host"`
	TaskHandlerPath         string `mapstructure:"task_handler_path" validate:"omitempty,startswith=/"`
	OIDCServiceAccountEmail string `mapstructure:"oidc_service_account_email"`
	OIDCAudience            string `mapstructure:"oidc_audience"`
}

// AuthConfig contains the inbound-request authentication settings.
// An empty audience disables OIDC verification of incoming task requests;
// that is only acceptable for local development.
type AuthConfig struct {
	OIDCAudience string `mapstructure:"oidc_audience"`
}
