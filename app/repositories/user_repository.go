package repositories

import (
	"context"
	"time"

	"quill/app/models"

	"github.com/dgraph-io/badger/v4"
)

// userRecord keeps the credential fields that the API never serializes.
type userRecord struct {
	models.User
	Password  string  `json:"password"`
	TokenHash *string `json:"token_hash"`
}

func newUserRecord(u *models.User) *userRecord {
	rec := &userRecord{User: *u, Password: u.Password, TokenHash: u.TokenHash}
	rec.User.Posts = nil
	rec.User.Comments = nil
	return rec
}

func (rec *userRecord) toModel() *models.User {
	u := rec.User
	u.Password = rec.Password
	u.TokenHash = rec.TokenHash
	return &u
}

// BadgerUserRepository implements UserRepository using BadgerDB
type BadgerUserRepository struct {
	db *badger.DB
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db}
}

// Create creates a new user
func (r *BadgerUserRepository) Create(ctx context.Context, user *models.User) error {
	return update(r.db, func(txn *badger.Txn) error {
		// Email must be free before an ID is spent
		taken, err := keyExists(txn, indexKey(UserEmailIndexPrefix, user.Email))
		if err != nil {
			return err
		}
		if taken {
			return &DuplicateError{Field: "email"}
		}

		id, err := getNextID(txn, UserSeqKey)
		if err != nil {
			return err
		}

		rec := newUserRecord(user)
		rec.ID = id
		now := time.Now()
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now

		if err := putUser(txn, rec, nil); err != nil {
			return err
		}

		user.ID = rec.ID
		user.CreatedAt = rec.CreatedAt
		user.UpdatedAt = rec.UpdatedAt
		return nil
	})
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user *models.User
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	return user, err
}

// GetByEmail retrieves a user through the email index
func (r *BadgerUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getByIndex(indexKey(UserEmailIndexPrefix, email))
}

// GetByTokenHash retrieves the user owning an API token
func (r *BadgerUserRepository) GetByTokenHash(ctx context.Context, hash string) (*models.User, error) {
	return r.getByIndex(indexKey(UserTokenIndexPrefix, hash))
}

func (r *BadgerUserRepository) getByIndex(key []byte) (*models.User, error) {
	var user *models.User
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getIndex(txn, key)
		if err != nil {
			return err
		}
		user, err = getUser(txn, id)
		return err
	})
	return user, err
}

// Update updates an existing user and moves its index entries
func (r *BadgerUserRepository) Update(ctx context.Context, user *models.User) error {
	return update(r.db, func(txn *badger.Txn) error {
		var existing userRecord
		if err := getEntity(txn, entityKey(UserKeyPrefix, user.ID), &existing); err != nil {
			return err
		}

		rec := newUserRecord(user)
		rec.UpdatedAt = time.Now()
		if err := putUser(txn, rec, &existing); err != nil {
			return err
		}

		user.UpdatedAt = rec.UpdatedAt
		return nil
	})
}

// Delete deletes a user along with their posts, the comments on those posts
// and every comment they wrote
func (r *BadgerUserRepository) Delete(ctx context.Context, id int64) error {
	return update(r.db, func(txn *badger.Txn) error {
		var rec userRecord
		if err := getEntity(txn, entityKey(UserKeyPrefix, id), &rec); err != nil {
			return err
		}

		posts, err := scanPosts(txn, func(p *models.Post) bool { return p.UserID == id })
		if err != nil {
			return err
		}
		for _, p := range posts {
			if err := deletePost(txn, p.ID); err != nil {
				return err
			}
		}

		comments, err := scanComments(txn, func(c *models.Comment) bool { return c.UserID == id })
		if err != nil {
			return err
		}
		for _, c := range comments {
			if err := txn.Delete(entityKey(CommentKeyPrefix, c.ID)); err != nil {
				return err
			}
		}

		if err := txn.Delete(indexKey(UserEmailIndexPrefix, rec.Email)); err != nil {
			return err
		}
		if rec.TokenHash != nil {
			if err := txn.Delete(indexKey(UserTokenIndexPrefix, *rec.TokenHash)); err != nil {
				return err
			}
		}
		return txn.Delete(entityKey(UserKeyPrefix, id))
	})
}

func getUser(txn *badger.Txn, id int64) (*models.User, error) {
	var rec userRecord
	if err := getEntity(txn, entityKey(UserKeyPrefix, id), &rec); err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

// putUser writes rec and keeps the email and token indexes in step with it.
// previous is the stored version, nil on create.
func putUser(txn *badger.Txn, rec *userRecord, previous *userRecord) error {
	if err := setIndex(txn, indexKey(UserEmailIndexPrefix, rec.Email), rec.ID, "email"); err != nil {
		return err
	}
	if previous != nil && previous.Email != rec.Email {
		if err := txn.Delete(indexKey(UserEmailIndexPrefix, previous.Email)); err != nil {
			return err
		}
	}

	if rec.TokenHash != nil {
		if err := setIndex(txn, indexKey(UserTokenIndexPrefix, *rec.TokenHash), rec.ID, "token"); err != nil {
			return err
		}
	}
	if previous != nil && previous.TokenHash != nil &&
		(rec.TokenHash == nil || *rec.TokenHash != *previous.TokenHash) {
		if err := txn.Delete(indexKey(UserTokenIndexPrefix, *previous.TokenHash)); err != nil {
			return err
		}
	}

	return setEntity(txn, entityKey(UserKeyPrefix, rec.ID), rec)
}
