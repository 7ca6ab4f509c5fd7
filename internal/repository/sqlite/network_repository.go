package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"followgraph/internal/domain"
	"followgraph/internal/repository"
)

var (
	// ErrDuplicateUser is returned when a user name is already stored, ignoring case.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrDuplicateFollow is returned when the follow edge is already stored.
	ErrDuplicateFollow = errors.New("follow already exists")
)

const createNetworkTables = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE COLLATE NOCASE,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS follows (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	follower TEXT NOT NULL,
	followee TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE(follower, followee),
	FOREIGN KEY(follower) REFERENCES users(name) ON DELETE CASCADE,
	FOREIGN KEY(followee) REFERENCES users(name) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows(followee);
`

type NetworkRepository struct {
	db *sql.DB
}

func NewNetworkRepository(db *sql.DB) repository.NetworkRepository {
	return &NetworkRepository{db: db}
}

func (r *NetworkRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createNetworkTables); err != nil {
		return fmt.Errorf("create network tables: %w", err)
	}
	return nil
}

func (r *NetworkRepository) CreateUser(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (name, created_at)
VALUES (?, ?)`,
		name,
		time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateUser, name)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	return id, nil
}

func (r *NetworkRepository) AddFollow(ctx context.Context, follower, followee string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO follows (follower, followee, created_at)
VALUES (?, ?, ?)`,
		follower,
		followee,
		time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s -> %s", ErrDuplicateFollow, follower, followee)
		}
		return fmt.Errorf("insert follow: %w", err)
	}
	return nil
}

func (r *NetworkRepository) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, created_at
FROM users
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.UserRecord
	for rows.Next() {
		var user domain.UserRecord
		if err := rows.Scan(&user.ID, &user.Name, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *NetworkRepository) ListFollows(ctx context.Context) ([]domain.FollowRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, follower, followee, created_at
FROM follows
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query follows: %w", err)
	}
	defer rows.Close()

	var follows []domain.FollowRecord
	for rows.Next() {
		var follow domain.FollowRecord
		if err := rows.Scan(&follow.ID, &follow.Follower, &follow.Followee, &follow.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan follow: %w", err)
		}
		follows = append(follows, follow)
	}

	return follows, rows.Err()
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
