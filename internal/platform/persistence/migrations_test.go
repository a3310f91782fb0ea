package persistence

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateSchema_Arguments(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		url     string
		dir     string
		wantErr string
	}{
		{name: "NoDirectory", url: "postgres://test", dir: "", wantErr: "migrations directory is required"},
		{name: "NoDatabaseURL", url: "", dir: "migrations/postgres", wantErr: "database URL is required"},
		{name: "AbsentDirectory", url: "postgres://localhost:5432/ledger?sslmode=disable", dir: t.TempDir() + "/absent", wantErr: "failed to open migrations in"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, MigrateSchema(logger, tt.url, tt.dir), tt.wantErr)
		})
	}
}
