package service

// RateLimitStore decides whether a caller identified by key may proceed.
// Allow both checks and records the attempt.
type RateLimitStore interface {
	Allow(key string) bool
}
