package domain

import "strings"

// User is a member of a Network together with the names it follows.
type User struct {
	name     string
	follows  []string
	capacity int
}

func NewUser(name string, capacity int) *User {
	if capacity < 0 {
		capacity = 0
	}
	return &User{
		name:     name,
		follows:  make([]string, 0, capacity),
		capacity: capacity,
	}
}

func (u *User) Name() string {
	return u.name
}

func (u *User) FollowCount() int {
	return len(u.follows)
}

func (u *User) Capacity() int {
	return u.capacity
}

// Followees returns a copy of the follow list in insertion order.
func (u *User) Followees() []string {
	out := make([]string, len(u.follows))
	copy(out, u.follows)
	return out
}

// AddFollowee appends name to the follow list. It reports false when the
// list is full or name is already followed.
func (u *User) AddFollowee(name string) bool {
	if len(u.follows) >= u.capacity || u.Follows(name) {
		return false
	}
	u.follows = append(u.follows, name)
	return true
}

// Follows matches name exactly (case-sensitive).
func (u *User) Follows(name string) bool {
	for _, f := range u.follows {
		if f == name {
			return true
		}
	}
	return false
}

// CountMutual returns how many followees u and other have in common.
func (u *User) CountMutual(other *User) int {
	if other == nil {
		return 0
	}
	count := 0
	for _, f := range u.follows {
		if other.Follows(f) {
			count++
		}
	}
	return count
}

func (u *User) String() string {
	if len(u.follows) == 0 {
		return u.name + " -> (none)"
	}
	return u.name + " -> " + strings.Join(u.follows, ", ")
}
