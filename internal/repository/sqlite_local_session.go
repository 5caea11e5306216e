package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/db"
)

// SQLiteLocalSessionRepo persists the CLI's session id and signed-in user.
type SQLiteLocalSessionRepo struct {
	db db.DBTX
}

// NewSQLiteLocalSessionRepo creates a new SQLiteLocalSessionRepo.
func NewSQLiteLocalSessionRepo(conn db.DBTX) *SQLiteLocalSessionRepo {
	return &SQLiteLocalSessionRepo{db: conn}
}

// Load returns the stored session. It wraps ErrNotFound before the first Save.
func (r *SQLiteLocalSessionRepo) Load(ctx context.Context) (LocalSession, error) {
	var (
		s             LocalSession
		userID, email string
		signedIn      sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, email, signed_in_at FROM local_session WHERE id = 1`,
	).Scan(&s.SessionID, &userID, &email, &signedIn)
	if errors.Is(err, sql.ErrNoRows) {
		return LocalSession{}, fmt.Errorf("local session: %w", ErrNotFound)
	}
	if err != nil {
		return LocalSession{}, fmt.Errorf("loading local session: %w", err)
	}
	if userID != "" {
		s.User = &auth.User{ID: userID, Email: email}
		s.SignedInAt = parseNullableTime(signedIn)
	}
	return s, nil
}

func (r *SQLiteLocalSessionRepo) Save(ctx context.Context, s LocalSession) error {
	var userID, email string
	signedIn := s.SignedInAt
	if s.User != nil {
		userID, email = s.User.ID, s.User.Email
	} else {
		signedIn = nil
	}
	query := `INSERT INTO local_session (id, session_id, user_id, email, signed_in_at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET session_id = excluded.session_id, user_id = excluded.user_id,
			email = excluded.email, signed_in_at = excluded.signed_in_at`
	if _, err := r.db.ExecContext(ctx, query, s.SessionID, userID, email, nullableTimeToString(signedIn)); err != nil {
		return fmt.Errorf("saving local session: %w", err)
	}
	return nil
}

// SignIn records the signed-in user and, in the same transaction, moves the
// session's anonymous preferences to the user's scope unless the user already
// has some.
func SignIn(ctx context.Context, uow db.UnitOfWork, s LocalSession, sessionScope, userScope string) error {
	return uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := NewSQLiteLocalSessionRepo(tx).Save(ctx, s); err != nil {
			return err
		}
		prefs := NewSQLitePreferenceRepo(tx)
		existing, err := prefs.GetPreferences(ctx, userScope)
		if err != nil {
			return err
		}
		anon, err := prefs.GetPreferences(ctx, sessionScope)
		if err != nil {
			return err
		}
		if !existing.IsZero() || anon.IsZero() {
			return nil
		}
		if err := prefs.SavePreferences(ctx, userScope, anon); err != nil {
			return err
		}
		return prefs.DeletePreferences(ctx, sessionScope)
	})
}
