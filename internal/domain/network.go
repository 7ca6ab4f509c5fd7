package domain

import (
	"errors"
	"strings"
)

var (
	// ErrUserNotFound indicates that no user with the given name is registered.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoRecommendation is returned when the network holds no other user to suggest.
	ErrNoRecommendation = errors.New("no recommendation available")
)

// Network is a capacity-bounded registry of users. It is not safe for
// concurrent use.
type Network struct {
	users    []*User
	capacity int
}

func NewNetwork(capacity int) *Network {
	if capacity < 0 {
		capacity = 0
	}
	return &Network{
		users:    make([]*User, 0, capacity),
		capacity: capacity,
	}
}

func (n *Network) Capacity() int {
	return n.capacity
}

func (n *Network) UserCount() int {
	return len(n.users)
}

// Users returns the registered users in registration order.
func (n *Network) Users() []*User {
	out := make([]*User, len(n.users))
	copy(out, n.users)
	return out
}

// GetUser looks a user up by name, ignoring case.
func (n *Network) GetUser(name string) (*User, bool) {
	for _, u := range n.users {
		if strings.EqualFold(u.Name(), name) {
			return u, true
		}
	}
	return nil, false
}

// AddUser registers a new user. It reports false when the network is full,
// the name is empty, or a user with the same name (any case) exists.
// Empty names are refused because "" is the not-found result of
// MostPopularUser and RecommendWhoToFollow.
func (n *Network) AddUser(name string) bool {
	if name == "" || len(n.users) >= n.capacity {
		return false
	}
	if _, exists := n.GetUser(name); exists {
		return false
	}
	n.users = append(n.users, NewUser(name, n.capacity))
	return true
}

// AddFollowee makes the user named name1 follow the user named name2.
// Follow lists always hold the followee's registered name, whatever case
// the caller used.
func (n *Network) AddFollowee(name1, name2 string) bool {
	if name1 == "" || name2 == "" {
		return false
	}
	follower, ok := n.GetUser(name1)
	if !ok {
		return false
	}
	followee, ok := n.GetUser(name2)
	if !ok || follower == followee {
		return false
	}
	return follower.AddFollowee(followee.Name())
}

// RecommendWhoToFollow returns the other user sharing the most followees
// with the named user. Ties go to the earliest registered user.
func (n *Network) RecommendWhoToFollow(name string) (string, error) {
	target, ok := n.GetUser(name)
	if !ok {
		return "", ErrUserNotFound
	}

	var best *User
	bestMutual := -1
	for _, u := range n.users {
		if u == target {
			continue
		}
		if mutual := target.CountMutual(u); mutual > bestMutual {
			best = u
			bestMutual = mutual
		}
	}
	if best == nil {
		return "", ErrNoRecommendation
	}
	return best.Name(), nil
}

// MostPopularUser returns the user followed by the most other users. It
// reports false for an empty network.
func (n *Network) MostPopularUser() (string, bool) {
	var best *User
	bestCount := -1
	for _, u := range n.users {
		if count := n.followerCount(u); count > bestCount {
			best = u
			bestCount = count
		}
	}
	if best == nil {
		return "", false
	}
	return best.Name(), true
}

// FollowerCount returns how many other users follow the named user, or 0
// when the name is unknown.
func (n *Network) FollowerCount(name string) int {
	u, ok := n.GetUser(name)
	if !ok {
		return 0
	}
	return n.followerCount(u)
}

func (n *Network) followerCount(target *User) int {
	count := 0
	for _, u := range n.users {
		if u != target && u.Follows(target.Name()) {
			count++
		}
	}
	return count
}

func (n *Network) String() string {
	var b strings.Builder
	b.WriteString("Network:")
	for _, u := range n.users {
		b.WriteString("\n")
		b.WriteString(u.String())
	}
	return b.String()
}
