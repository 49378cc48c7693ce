// Package service declares the infrastructure capabilities the use cases depend on:
// hashing, token signing, federated identity, rate limiting and event publishing.
package service

// PasswordHasher hashes and checks account passwords. OAuth-only accounts have no
// hash and never reach Check.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Check reports whether password matches hash. Malformed hashes report false.
	Check(password, hash string) bool
}
