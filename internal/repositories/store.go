package repositories

import (
	"context"
	"database/sql"
)

// Repos groups repositories bound to the same connection or transaction.
type Repos struct {
	Users      UserRepository
	Categories CategoryRepository
	Tasks      TaskRepository
}

func newRepos(q DBTX, d Dialect) Repos {
	return Repos{
		Users:      NewUserRepository(q, d),
		Categories: NewCategoryRepository(q),
		Tasks:      NewTaskRepository(q, d),
	}
}

// Transactor runs fn with repositories bound to a single transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(Repos) error) error
}

// Store exposes pool-bound repositories and transactional units of work.
type Store struct {
	Repos
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{Repos: newRepos(db, db.Dialect), db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(Repos) error) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(newRepos(tx, s.db.Dialect))
	})
}
