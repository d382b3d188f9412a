// Package chat holds the in-memory room state: who is online, the recent
// message buffer, and who is currently typing.
//
// None of the types in this package are safe for concurrent use. They are
// owned by a single goroutine (the server hub) which serializes every
// mutation.
package chat

import "time"

// User is a joined connection. ID is the connection identifier, so two
// connections may share a Username.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
	IsOnline bool      `json:"isOnline"`
}

// Registry maps connection ids to users and remembers insertion order.
type Registry struct {
	users map[string]User
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[string]User)}
}

// Register stores a user for connectionID. Registering an id that is already
// present overwrites the entry in place.
func (r *Registry) Register(connectionID, username string, joinedAt time.Time) User {
	user := User{
		ID:       connectionID,
		Username: username,
		JoinedAt: joinedAt,
		IsOnline: true,
	}

	if _, exists := r.users[connectionID]; !exists {
		r.order = append(r.order, connectionID)
	}
	r.users[connectionID] = user
	return user
}

// Unregister removes and returns the entry for connectionID. The boolean is
// false when the connection never joined.
func (r *Registry) Unregister(connectionID string) (User, bool) {
	user, ok := r.users[connectionID]
	if !ok {
		return User{}, false
	}

	delete(r.users, connectionID)
	for i, id := range r.order {
		if id == connectionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return user, true
}

// Lookup returns the user registered for connectionID.
func (r *Registry) Lookup(connectionID string) (User, bool) {
	user, ok := r.users[connectionID]
	return user, ok
}

// List returns every user in insertion order.
func (r *Registry) List() []User {
	users := make([]User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, r.users[id])
	}
	return users
}

// Len reports how many users are registered.
func (r *Registry) Len() int {
	return len(r.users)
}
