package repository

import (
	"context"

	"followgraph/internal/domain"
)

// NetworkRepository persists the users and follow edges of a network so it
// can be rebuilt after a restart.
type NetworkRepository interface {
	Init(ctx context.Context) error
	CreateUser(ctx context.Context, name string) (int64, error)
	AddFollow(ctx context.Context, follower, followee string) error
	// ListUsers returns users in registration order.
	ListUsers(ctx context.Context) ([]domain.UserRecord, error)
	// ListFollows returns follow edges in the order they were added.
	ListFollows(ctx context.Context) ([]domain.FollowRecord, error)
}
