package domain

import "time"

// UserRecord is the persisted form of a registered user.
type UserRecord struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// FollowRecord is the persisted form of a follow edge.
type FollowRecord struct {
	ID        int64
	Follower  string
	Followee  string
	CreatedAt time.Time
}
