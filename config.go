package smartsock

import (
	"time"

	"go.uber.org/zap"
)

// Defaults referenced throughout §3/§4/§7.
const (
	defaultInitialRTT       = 50 * time.Millisecond
	defaultSentEvictionAge  = 2 * time.Second
	defaultSentEvictionWin  = 256
	defaultLivenessFloor    = 5 * time.Second
	defaultLivenessRTTMul   = 10
	defaultResendLimit      = 0 // unreliable-by-default; see §9
	defaultExecutorQueueLen = 256
)

// Config holds the tunables SmartSocket and Connection are constructed
// with. DefaultConfig returns sane defaults; Options layer on top, the
// same functional-options shape quic-go uses for its own Config.
type Config struct {
	// InitialRTT seeds avgRTT on a fresh connection.
	InitialRTT time.Duration
	// SentEvictionAge evicts an unacked packet older than this (§3/§4.E).
	SentEvictionAge time.Duration
	// SentEvictionWindow evicts an unacked packet once peerAck has moved
	// this many seqnums past it (§4.E).
	SentEvictionWindow uint16
	// LivenessFloor is the minimum liveness timeout regardless of RTT.
	LivenessFloor time.Duration
	// DefaultResendLimit is used by asyncSend callers that don't specify
	// their own budget.
	DefaultResendLimit uint32
	// ExecutorQueueLen hints the initial capacity of the socket's task
	// queue; the queue itself grows unbounded beyond it.
	ExecutorQueueLen int
	// Logger receives structured logs; nil is replaced with zap.NewNop().
	Logger *zap.Logger
}

// DefaultConfig returns the recommended configuration from §3/§7/§9.
func DefaultConfig() Config {
	return Config{
		InitialRTT:         defaultInitialRTT,
		SentEvictionAge:    defaultSentEvictionAge,
		SentEvictionWindow: defaultSentEvictionWin,
		LivenessFloor:      defaultLivenessFloor,
		DefaultResendLimit: defaultResendLimit,
		ExecutorQueueLen:   defaultExecutorQueueLen,
	}
}

// Option mutates a Config at construction time.
type Option func(*Config)

// WithInitialRTT overrides the seeded avgRTT for new connections.
func WithInitialRTT(d time.Duration) Option {
	return func(c *Config) { c.InitialRTT = d }
}

// WithLivenessFloor overrides the minimum liveness timeout.
func WithLivenessFloor(d time.Duration) Option {
	return func(c *Config) { c.LivenessFloor = d }
}

// WithDefaultResendLimit overrides the resend budget asyncSend uses when
// callers don't specify their own.
func WithDefaultResendLimit(n uint32) Option {
	return func(c *Config) { c.DefaultResendLimit = n }
}

// WithLogger attaches a zap logger; nil falls back to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// livenessTimeout computes max(LivenessFloor, 10*avgRTT) per §7's
// recommended policy.
func (c Config) livenessTimeout(avgRTT time.Duration) time.Duration {
	scaled := defaultLivenessRTTMul * avgRTT
	if scaled > c.LivenessFloor {
		return scaled
	}
	return c.LivenessFloor
}
