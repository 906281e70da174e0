package utils

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromDBURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with port", "postgresql://user:pw@db.local:6432/drivetime", "db.local:6432"},
		{"default port", "postgresql://user:pw@db.local/drivetime", "db.local:5432"},
		{"short scheme", "postgres://user@localhost:5433/x?sslmode=disable", "localhost:5433"},
		{"no credentials", "postgresql://localhost/x", "localhost:5432"},
		{"no path", "postgresql://user@pghost", "pghost:5432"},
		{"sqlite", "sqlite://trips.db", ""},
		{"garbage", "not a url", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromDBURL(tt.url))
		})
	}
}

func TestWaitForTCP(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	go func() {
		for {
			c, err := lis.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	assert.NoError(t, WaitForTCP(context.Background(), addr, time.Second))

	lis.Close()
	assert.Error(t, WaitForTCP(context.Background(), addr, 300*time.Millisecond))
}
