package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Kellerman81/go_movie_catalog/apperrors"
	"github.com/Kellerman81/go_movie_catalog/logger"
	"github.com/jmoiron/sqlx"
)

// Session is one unit of work. All statements issued through it commit or
// roll back together.
type Session struct {
	*sqlx.Tx
	done bool
}

// Begin starts a session. The caller must end it with Commit or Rollback;
// WithSession does both automatically.
func (db *DB) Begin(ctx context.Context) (*Session, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassDatabase, "begin_session", err)
	}
	return &Session{Tx: tx}, nil
}

func (s *Session) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.Tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrClassDatabase, "commit_session", err)
	}
	return nil
}

// Rollback discards the session. It is a no-op once the session ended.
func (s *Session) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.Tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return apperrors.Wrap(apperrors.ErrClassDatabase, "rollback_session", err)
	}
	return nil
}

// WithSession runs fn inside a session. The session commits when fn returns
// nil and rolls back when fn fails or panics.
func (db *DB) WithSession(ctx context.Context, fn func(*Session) error) (err error) {
	sess, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sess.Rollback()
			panic(p)
		}
		if err != nil {
			if rerr := sess.Rollback(); rerr != nil {
				logger.LogError(rerr, "Rollback failed")
			}
			return
		}
		err = sess.Commit()
	}()
	return fn(sess)
}
