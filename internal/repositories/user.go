package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/shared"
)

// UserRepository implements [models.UserStore] for chat user persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts the profile on first contact and refreshes the mutable
// fields (username, names, language, last_active) on every contact after.
func (r *UserRepository) Upsert(profile *models.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	profile.LastActiveAt = now

	existing, err := r.Get(profile.UserID)
	if err == nil {
		profile.ID = existing.ID
		profile.Sequence = existing.Sequence
		profile.CreatedAt = existing.CreatedAt

		query := `
			UPDATE users
			SET username = ?, first_name = ?, last_name = ?, language_code = ?, last_active = ?
			WHERE user_id = ?
		`
		if _, err := r.db.Exec(query,
			profile.Username,
			profile.FirstName,
			profile.LastName,
			profile.LanguageCode,
			now,
			profile.UserID,
		); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	}

	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	profile.ID = shared.GenerateID()
	profile.Sequence = sequence
	profile.CreatedAt = now
	if profile.LanguageCode == "" {
		profile.LanguageCode = "en"
	}

	query := `
		INSERT INTO users (id, sequence, user_id, username, first_name, last_name, language_code, created_at, last_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query,
		profile.ID,
		profile.Sequence,
		profile.UserID,
		profile.Username,
		profile.FirstName,
		profile.LastName,
		profile.LanguageCode,
		profile.CreatedAt,
		profile.LastActiveAt,
	); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a profile by its chat user id.
func (r *UserRepository) Get(userID int64) (*models.UserProfile, error) {
	query := `
		SELECT id, sequence, user_id, username, first_name, last_name, language_code, created_at, last_active
		FROM users
		WHERE user_id = ?
	`

	var (
		profile  models.UserProfile
		username sql.NullString
		first    sql.NullString
		last     sql.NullString
		lang     sql.NullString
	)

	err := r.db.QueryRow(query, userID).Scan(
		&profile.ID,
		&profile.Sequence,
		&profile.UserID,
		&username,
		&first,
		&last,
		&lang,
		&profile.CreatedAt,
		&profile.LastActiveAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %d", shared.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	profile.Username = username.String
	profile.FirstName = first.String
	profile.LastName = last.String
	profile.LanguageCode = lang.String

	return &profile, nil
}
