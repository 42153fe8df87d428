package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configEnv lists every environment variable Load consults.
var configEnv = []string{
	"TASKBRIDGE_SERVER_PORT",
	"TASKBRIDGE_SERVER_LOG_LEVEL",
	"TASKBRIDGE_BACKEND_PROJECT",
	"CLOUD_TASKS_PROJECT",
	"CLOUD_TASKS_LOCATION",
	"TASK_HANDLER_HOST",
	"TASK_HANDLER_PATH",
	"OIDC_SERVICE_ACCOUNT_EMAIL",
	"OIDC_AUDIENCE",
	"CLOUD_TASKS_OIDC_AUDIENCE",
}

// setupEnv clears all config variables and applies the given values,
// restoring the original environment when the test finishes.
func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for _, name := range configEnv {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	for name, value := range envVars {
		t.Setenv(name, value)
	}
}

// TestLoadDefaults verifies that Load sets the expected default values when
// no environment variables are set.
func TestLoadDefaults(t *testing.T) {
	setupEnv(t, nil)

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.Equal(t, 8080, cfg.Server.Port, "Default server port should be 8080")
	assert.Equal(t, "info", cfg.Server.LogLevel, "Default log level should be 'info'")
	assert.Equal(t, "/cloudtasks/execute/", cfg.Backend.TaskHandlerPath,
		"Default task handler path should be /cloudtasks/execute/")
	assert.Empty(t, cfg.Backend.Project, "Project should be empty when not configured")
	assert.Empty(t, cfg.Auth.OIDCAudience, "Auth audience should be empty when not configured")
}

// TestLoadFromEnv verifies that Load reads prefixed environment variables.
func TestLoadFromEnv(t *testing.T) {
	setupEnv(t, map[string]string{
		"TASKBRIDGE_SERVER_PORT":      "9090",
		"TASKBRIDGE_SERVER_LOG_LEVEL": "debug",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
}

// TestLoadCloudTasksNames verifies the conventional unprefixed Cloud Tasks
// variable names are honored for the backend and auth options.
func TestLoadCloudTasksNames(t *testing.T) {
	setupEnv(t, map[string]string{
		"CLOUD_TASKS_PROJECT":        "my-project",
		"CLOUD_TASKS_LOCATION":       "asia-northeast1",
		"TASK_HANDLER_HOST":          "https://my-service.run.app",
		"TASK_HANDLER_PATH":          "/internal/tasks/",
		"OIDC_SERVICE_ACCOUNT_EMAIL": "sa@my-project.iam.gserviceaccount.com",
		"OIDC_AUDIENCE":              "https://my-service.run.app",
		"CLOUD_TASKS_OIDC_AUDIENCE":  "https://my-service.run.app",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "my-project", cfg.Backend.Project)
	assert.Equal(t, "asia-northeast1", cfg.Backend.Location)
	assert.Equal(t, "https://my-service.run.app", cfg.Backend.TaskHandlerHost)
	assert.Equal(t, "/internal/tasks/", cfg.Backend.TaskHandlerPath)
	assert.Equal(t, "sa@my-project.iam.gserviceaccount.com", cfg.Backend.OIDCServiceAccountEmail)
	assert.Equal(t, "https://my-service.run.app", cfg.Backend.OIDCAudience)
	assert.Equal(t, "https://my-service.run.app", cfg.Auth.OIDCAudience)
}

// TestLoadValidationErrors verifies invalid values are rejected.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "port out of range",
			envVars: map[string]string{"TASKBRIDGE_SERVER_PORT": "999999"},
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{"TASKBRIDGE_SERVER_LOG_LEVEL": "loud"},
		},
		{
			// Routers reject patterns without a leading slash at mount time,
			// so catch the misconfiguration here instead.
			name:    "task handler path without leading slash",
			envVars: map[string]string{"TASK_HANDLER_PATH": "cloudtasks/execute/"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setupEnv(t, tc.envVars)

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}
