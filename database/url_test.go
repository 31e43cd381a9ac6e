package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructDatabaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		baseURL      string
		databaseName string
		want         string
	}{
		{
			name:    "no database name returns base",
			baseURL: "postgres://u:p@localhost:5432/lotto",
			want:    "postgres://u:p@localhost:5432/lotto",
		},
		{
			name:         "appends name and sslmode",
			baseURL:      "postgres://u:p@localhost:5432/",
			databaseName: "lotto",
			want:         "postgres://u:p@localhost:5432/lotto?sslmode=disable",
		},
		{
			name:         "keeps existing query parameters",
			baseURL:      "postgres://u:p@localhost:5432?connect_timeout=5",
			databaseName: "lotto",
			want:         "postgres://u:p@localhost:5432/lotto?connect_timeout=5&sslmode=disable",
		},
		{
			name:         "respects explicit sslmode",
			baseURL:      "postgres://u:p@db:5432?sslmode=require",
			databaseName: "lotto",
			want:         "postgres://u:p@db:5432/lotto?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ConstructDatabaseURL(tt.baseURL, tt.databaseName))
		})
	}
}
