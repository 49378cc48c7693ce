package repository

import "context"

// TransactionManager runs a unit of work atomically. The refresh token rotation
// (lock user, revoke, insert) is the unit this exists for.
type TransactionManager interface {
	// Execute commits when fn returns nil and rolls back otherwise. Repositories
	// obtained from the factory share fn's transaction.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory hands out repositories bound to one open transaction.
type RepositoryFactory interface {
	NewUserRepository() UserRepository
	NewRefreshTokenRepository() RefreshTokenRepository
}
