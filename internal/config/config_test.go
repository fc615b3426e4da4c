package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
storage:
  backend: memory
  namespace: idcards
wizard:
  countdown_ticks: 3
  countdown_interval: 500ms
admin:
  allowed_statuses: [Pending, Approved]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "idcards", cfg.Storage.Namespace)
	assert.Equal(t, "idcards.audit", cfg.Storage.AuditKey())
	assert.Equal(t, 3, cfg.Wizard.CountdownTicks)
	assert.Equal(t, 500*time.Millisecond, cfg.Wizard.CountdownInterval)
	assert.Equal(t, time.Second, cfg.Wizard.SubmitDelay, "unset keys keep their defaults")
	assert.Equal(t, "Unknown employee", cfg.Admin.PlaceholderName)
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: memory\n")
	t.Setenv("IDCARD_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"unknown backend", "storage:\n  backend: tape\n"},
		{"mysql without host", "storage:\n  backend: mysql\n"},
		{"unknown notifier", "notifier:\n  kind: carrier-pigeon\n"},
		{"negative ticks", "wizard:\n  countdown_ticks: -1\n"},
		{"negative delay", "wizard:\n  submit_delay: -1s\n"},
		{"empty namespace", "storage:\n  namespace: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "requests", cfg.Storage.Namespace)
	assert.Equal(t, 5, cfg.Wizard.CountdownTicks)
	assert.Equal(t, time.Second, cfg.Wizard.CountdownInterval)
	assert.True(t, cfg.Wizard.CameraEnabled)
	assert.Equal(t, NotifierLocal, cfg.Notifier.Kind)
	assert.Equal(t, 30*time.Minute, cfg.Admin.ConsoleIdleTimeout)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.GetServerAddress())
}

func TestIsStatusAllowed(t *testing.T) {
	open := AdminConfig{}
	assert.True(t, open.IsStatusAllowed("Anything"))

	restricted := AdminConfig{AllowedStatuses: []string{"Pending", "Approved"}}
	assert.True(t, restricted.IsStatusAllowed("Approved"))
	assert.False(t, restricted.IsStatusAllowed("Printed"))
}

func TestGetDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Hostname: "db", Port: 3306, Database: "idcard"}
	assert.Equal(t, "u:p@tcp(db:3306)/idcard?parseTime=true&multiStatements=true", d.GetDSN())
}
