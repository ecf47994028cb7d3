// Package users defines the user-directory collaborator: a narrow
// lookup used to verify the client opening a cart actually exists.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/codewandler/cart-go/ports/kv"
)

// ErrUserNotFound is returned when the directory holds no such user.
var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Directory resolves users by ID.
type Directory interface {
	GetUser(ctx context.Context, userID string) (*User, error)
}

// KVDirectory is a Directory backed by a key-value store.
type KVDirectory struct {
	store kv.Store
}

func NewKVDirectory(store kv.Store) *KVDirectory {
	return &KVDirectory{store: store}
}

// userKey stays within the NATS KV key alphabet so the directory can
// sit on any Store implementation.
func userKey(userID string) string { return "user." + userID }

func (d *KVDirectory) GetUser(ctx context.Context, userID string) (*User, error) {
	u, err := kv.Get[User](ctx, d.store, userKey(userID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, err
	}
	return &u, nil
}

// PutUser registers or updates a user.
func (d *KVDirectory) PutUser(ctx context.Context, u User) error {
	if u.ID == "" {
		return errors.New("user id is empty")
	}
	return kv.Put(ctx, d.store, userKey(u.ID), u, kv.PutOptions{})
}

var _ Directory = (*KVDirectory)(nil)
