// Package redisx builds Redis connection options from a URL.
// This is part of the platform layer and contains no business logic.
package redisx

import (
	"crypto/tls"

	"github.com/redis/go-redis/v9"
)

// ParseOptions parses redisURL. With tlsInsecure, certificate verification
// is disabled, and TLS is enabled even for redis:// URLs.
func ParseOptions(redisURL string, tlsInsecure bool) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		opt.TLSConfig = clone
	} else if tlsInsecure {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return opt, nil
}

// NewClient opens a client for redisURL.
func NewClient(redisURL string, tlsInsecure bool) (*redis.Client, error) {
	opt, err := ParseOptions(redisURL, tlsInsecure)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}
