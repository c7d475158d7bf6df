package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"dial error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"wrapped eof", fmt.Errorf("failed to connect to redis: %w", io.EOF), true},
		{"plain error", errors.New("invalid port"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestNewClientRefusedIsTransient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	host := mr.Host()
	mr.Close()

	_, err = NewClient(context.Background(), Config{Host: host, Port: port})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestNewClientWrongPasswordIsPermanent(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("correct-horse")
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	_, err = NewClient(context.Background(), Config{Host: mr.Host(), Port: port, Password: "wrong"})
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}
