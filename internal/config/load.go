package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables.
// Environment variables use the TASKBRIDGE_ prefix with underscores separating
// config groups (e.g. TASKBRIDGE_SERVER_PORT). The Cloud Tasks backend and
// auth options are additionally bound to the conventional unprefixed names
// (CLOUD_TASKS_PROJECT, TASK_HANDLER_HOST, ...) so a service deployed next to
// other Cloud Tasks consumers can share one set of variables.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("backend.task_handler_path", "/cloudtasks/execute/")

	// Environment variables: TASKBRIDGE_SERVER_PORT -> server.port
	v.SetEnvPrefix("TASKBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional Cloud Tasks variable names, checked after the prefixed form.
	bindings := map[string][]string{
		"backend.project":                    {"CLOUD_TASKS_PROJECT"},
		"backend.location":                   {"CLOUD_TASKS_LOCATION"},
		"backend.task_handler_host":          {"TASK_HANDLER_HOST"},
		"backend.task_handler_path":          {"TASK_HANDLER_PATH"},
		"backend.oidc_service_account_email": {"OIDC_SERVICE_ACCOUNT_EMAIL"},
		"backend.oidc_audience":              {"OIDC_AUDIENCE"},
		"auth.oidc_audience":                 {"CLOUD_TASKS_OIDC_AUDIENCE"},
	}
	for key, names := range bindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
