package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const baseConfig = `
db_username: postgres
db_password: secret
db_host: localhost
db_name: attendance
jwt_key: dev-key
`

func TestNewConfigDefaults(t *testing.T) {
	c, err := NewConfig(writeConfig(t, baseConfig))
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if c.DBPort != "5432" {
		t.Errorf("port = %q, want 5432", c.DBPort)
	}
	if c.DistanceOracle != OracleHaversine {
		t.Errorf("oracle = %q, want %q", c.DistanceOracle, OracleHaversine)
	}
}

func TestNewConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing database", "jwt_key: k\n"},
		{"missing jwt key", "db_username: u\ndb_password: p\ndb_host: h\ndb_name: n\n"},
		{"google without key", baseConfig + "distance_oracle: google\n"},
		{"unknown oracle", baseConfig + "distance_oracle: osrm\n"},
		{"invalid yaml", "db_username: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewConfig(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	if _, err := NewConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
