package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/rawhttpd/internal/core/domain"
)

// Key prefixes of the user keyspace.
var (
	prefixUserID    = []byte("user/id/")
	prefixUserName  = []byte("user/name/")
	prefixUserEmail = []byte("user/email/")
)

const userSequence = "seq/user"

// userRecord is the persisted form of a domain.User.
type userRecord struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"password_hash"`
}

func recordFromUser(u *domain.User) userRecord {
	return userRecord{
		ID:           int64(u.ID),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
}

func (r userRecord) toUser() *domain.User {
	return &domain.User{
		ID:           domain.UserID(r.ID),
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
	}
}

func idKey(id domain.UserID) []byte {
	key := make([]byte, len(prefixUserID)+8)
	copy(key, prefixUserID)
	binary.BigEndian.PutUint64(key[len(prefixUserID):], uint64(id))
	return key
}

func nameKey(username string) []byte {
	return append(append([]byte(nil), prefixUserName...), username...)
}

func emailKey(email string) []byte {
	return append(append([]byte(nil), prefixUserEmail...), email...)
}

func encodeID(id domain.UserID) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func decodeID(b []byte) (domain.UserID, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("storage: corrupt user id index value (%d bytes)", len(b))
	}
	return domain.UserID(binary.BigEndian.Uint64(b)), nil
}

// UserRepository persists users in a BadgerEngine.
//
// All errors it returns are *domain.DomainError values: not-found and
// uniqueness violations carry their own codes and every storage failure is
// domain.ErrDatabase with the cause attached.
type UserRepository struct {
	engine *BadgerEngine
}

// NewUserRepository creates a repository over engine.
func NewUserRepository(engine *BadgerEngine) *UserRepository {
	return &UserRepository{engine: engine}
}

// Create stores a new user. The ID of u is ignored and a fresh one from the
// user sequence is assigned. Returns the stored user.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	seq, err := r.engine.NextSequence(userSequence)
	if err != nil {
		return nil, dbError(err)
	}

	rec := recordFromUser(u)
	rec.ID = int64(seq)
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, dbError(err)
	}

	err = r.engine.Update(ctx, func(txn *badger.Txn) error {
		if exists, err := keyExists(txn, nameKey(rec.Username)); err != nil {
			return err
		} else if exists {
			return domain.ErrUserAlreadyExists
		}
		if exists, err := keyExists(txn, emailKey(rec.Email)); err != nil {
			return err
		} else if exists {
			return domain.ErrEmailAlreadyExists
		}

		id := domain.UserID(rec.ID)
		if err := txn.Set(idKey(id), data); err != nil {
			return err
		}
		if err := txn.Set(nameKey(rec.Username), encodeID(id)); err != nil {
			return err
		}
		return txn.Set(emailKey(rec.Email), encodeID(id))
	})
	if err != nil {
		return nil, dbError(err)
	}

	return rec.toUser(), nil
}

// GetByID returns the user with id.
func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var user *domain.User
	err := r.engine.View(ctx, func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return nil, dbError(err)
	}
	return user, nil
}

// GetByUsername returns the user registered as username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user *domain.User
	err := r.engine.View(ctx, func(txn *badger.Txn) error {
		id, err := lookupID(txn, nameKey(username))
		if err != nil {
			return err
		}
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return nil, dbError(err)
	}
	return user, nil
}

// List returns every user in id order.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	users := []*domain.User{}
	var decodeErr error

	err := r.engine.Scan(ctx, prefixUserID, func(_, value []byte) bool {
		var rec userRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			decodeErr = err
			return false
		}
		users = append(users, rec.toUser())
		return true
	})
	if err == nil {
		err = decodeErr
	}
	if err != nil {
		return nil, dbError(err)
	}
	return users, nil
}

// UpdatePassword replaces the password hash of user id.
func (r *UserRepository) UpdatePassword(ctx context.Context, id domain.UserID, hash []byte) (*domain.User, error) {
	var updated *domain.User
	err := r.engine.Update(ctx, func(txn *badger.Txn) error {
		user, err := getUser(txn, id)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		updated = user
		return putUser(txn, user)
	})
	if err != nil {
		return nil, dbError(err)
	}
	return updated, nil
}

// UpdateEmail changes the email of user id, keeping the email index unique.
func (r *UserRepository) UpdateEmail(ctx context.Context, id domain.UserID, email string) (*domain.User, error) {
	var updated *domain.User
	err := r.engine.Update(ctx, func(txn *badger.Txn) error {
		user, err := getUser(txn, id)
		if err != nil {
			return err
		}
		if user.Email == email {
			updated = user
			return nil
		}

		owner, err := lookupID(txn, emailKey(email))
		switch {
		case err == nil && owner != id:
			return domain.ErrEmailAlreadyExists
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return err
		}

		if err := txn.Delete(emailKey(user.Email)); err != nil {
			return err
		}
		if err := txn.Set(emailKey(email), encodeID(id)); err != nil {
			return err
		}
		user.Email = email
		updated = user
		return putUser(txn, user)
	})
	if err != nil {
		return nil, dbError(err)
	}
	return updated, nil
}

func keyExists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

func lookupID(txn *badger.Txn, key []byte) (domain.UserID, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, domain.ErrUserNotFound
		}
		return 0, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	return decodeID(value)
}

func getUser(txn *badger.Txn, id domain.UserID) (*domain.User, error) {
	item, err := txn.Get(idKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	var rec userRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.toUser(), nil
}

func putUser(txn *badger.Txn, u *domain.User) error {
	data, err := json.Marshal(recordFromUser(u))
	if err != nil {
		return err
	}
	return txn.Set(idKey(u.ID), data)
}

// dbError passes domain errors through and wraps everything else as
// domain.ErrDatabase.
func dbError(err error) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrDatabase.WithCause(err)
}
