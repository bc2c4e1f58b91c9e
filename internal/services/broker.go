package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/setlist/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// DefaultValiditySeconds is reported by [TokenBroker.RemainingValiditySeconds] before any token was cached.
const DefaultValiditySeconds = 3600

const refreshKey = "token"

// TokenBroker holds one Spotify app access token obtained through the client-credentials grant.
//
// A cached token is served while now < expiry. Concurrent misses share a single exchange.
// A failed exchange leaves the cached token and expiry as they were.
type TokenBroker struct {
	config *clientcredentials.Config
	client *http.Client
	now    func() time.Time

	mu     sync.RWMutex
	token  string
	expiry time.Time

	group     singleflight.Group
	exchanges atomic.Int64
	failures  atomic.Int64
}

// NewTokenBroker creates a broker exchanging cfg's client credentials at cfg.TokenURL.
// A nil client uses one with cfg.Timeout.
func NewTokenBroker(cfg shared.SpotifyConfig, client *http.Client) (*TokenBroker, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("%w: spotify token_url is required", shared.ErrInvalidConfig)
	}
	if client == nil {
		timeout := cfg.Timeout.Duration
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &TokenBroker{
		config: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		client: client,
		now:    time.Now,
	}, nil
}

// WithClock replaces the broker's time source.
func (b *TokenBroker) WithClock(now func() time.Time) *TokenBroker {
	b.now = now
	return b
}

// Token returns a valid access token, exchanging credentials when the cache is empty or expired.
//
// Exchange failures wrap [shared.ErrTokenExchange]. Waiting callers give up when ctx is done.
func (b *TokenBroker) Token(ctx context.Context) (string, error) {
	if token, ok := b.cached(); ok {
		return token, nil
	}

	// the shared exchange must not die with whichever caller happened to start it
	detached := context.WithoutCancel(ctx)
	ch := b.group.DoChan(refreshKey, func() (any, error) {
		if token, ok := b.cached(); ok {
			return token, nil
		}
		return b.refresh(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// RemainingValiditySeconds reports whole seconds until the cached token expires, never less than zero.
func (b *TokenBroker) RemainingValiditySeconds() int {
	b.mu.RLock()
	expiry := b.expiry
	b.mu.RUnlock()

	if expiry.IsZero() {
		return DefaultValiditySeconds
	}

	remaining := expiry.Sub(b.now())
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}

// Exchanges reports how many exchanges were attempted.
func (b *TokenBroker) Exchanges() int64 { return b.exchanges.Load() }

// ExchangeFailures reports how many exchanges failed.
func (b *TokenBroker) ExchangeFailures() int64 { return b.failures.Load() }

func (b *TokenBroker) cached() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.token == "" || !b.now().Before(b.expiry) {
		return "", false
	}
	return b.token, true
}

func (b *TokenBroker) refresh(ctx context.Context) (string, error) {
	b.exchanges.Add(1)

	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.client)
	tok, err := b.config.Token(ctx)
	if err != nil {
		b.failures.Add(1)
		return "", fmt.Errorf("%w: %w", shared.ErrTokenExchange, err)
	}

	lifetime, err := expiresIn(tok)
	if err != nil {
		b.failures.Add(1)
		return "", fmt.Errorf("%w: %w", shared.ErrTokenExchange, err)
	}

	now := b.now()

	b.mu.Lock()
	b.token = tok.AccessToken
	b.expiry = now.Add(lifetime)
	b.mu.Unlock()

	return tok.AccessToken, nil
}

// expiresIn reads the raw expires_in field of a token response.
func expiresIn(tok *oauth2.Token) (time.Duration, error) {
	if tok.AccessToken == "" {
		return 0, fmt.Errorf("response has no access_token")
	}

	var seconds float64
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		seconds = v
	case int64:
		seconds = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("malformed expires_in %q", v)
		}
		seconds = f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed expires_in %q", v)
		}
		seconds = f
	case nil:
		return 0, fmt.Errorf("response has no expires_in")
	default:
		return 0, fmt.Errorf("malformed expires_in %v", v)
	}

	if seconds <= 0 {
		return 0, fmt.Errorf("non-positive expires_in %v", seconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
