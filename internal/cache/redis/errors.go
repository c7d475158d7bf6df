package redis

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
)

// IsTransient reports whether err comes from the network or from a server
// that is still starting. Authentication and protocol errors are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		// LOADING: the server is replaying its dataset into memory.
		return strings.HasPrefix(redisErr.Error(), "LOADING")
	}
	return false
}
