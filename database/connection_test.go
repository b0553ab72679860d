package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDatabaseName(t *testing.T) {
	tests := map[string]string{
		"mongodb://127.0.0.1:27017/disaster-guardian":          "disaster-guardian",
		"mongodb://user:pw@db:27017/guardian?authSource=admin": "guardian",
		"mongodb://127.0.0.1:27017":                            defaultDatabaseName,
		"mongodb://127.0.0.1:27017/admin":                      defaultDatabaseName,
		"not a uri":                                            defaultDatabaseName,
	}
	for uri, want := range tests {
		assert.Equal(t, want, extractDatabaseName(uri), uri)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	require.Nil(t, client)

	assert.Error(t, Ping(context.Background()))

	result := HealthCheck(context.Background())
	assert.Equal(t, "unhealthy", result["status"])
	assert.Equal(t, "database connection lost", result["error"])

	assert.NoError(t, Disconnect())
}

func TestRunSeeders_UnknownName(t *testing.T) {
	err := RunSeeders(context.Background(), nil, SeedOptions{}, "admin", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown seeder "nope"`)
	assert.Equal(t, []string{"admin", "users", "demo"}, SeederNames())
}
