package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/db"
	"github.com/yigit/studygraph/internal/pkg/apperrors"
	"github.com/yigit/studygraph/internal/pkg/dberrors"
)

const userColumns = `id::text, email, username, password, origin, csv_file_name, csv_url, csv_uploaded_at, created_at, updated_at`

// PgUserRepository is the PostgreSQL UserRepository
type PgUserRepository struct {
	db *db.PostgresDB
}

var _ UserRepository = (*PgUserRepository)(nil)

// NewUserRepository creates a new PgUserRepository
func NewUserRepository(database *db.PostgresDB) *PgUserRepository {
	return &PgUserRepository{db: database}
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.Password, &user.Origin,
		&user.CSVFileName, &user.CSVURL, &user.CSVUploadedAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Courses = []models.Course{}
	return user, nil
}

// Create creates a new user
func (r *PgUserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO users (id, email, username, password, origin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.Username, user.Password, user.Origin, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "users_email_key"):
			return apperrors.ErrEmailAlreadyExists
		case dberrors.IsDuplicateConstraintError(err, "users_username_key"):
			return apperrors.ErrUsernameTaken
		}
		return fmt.Errorf("error creating user: %w", err)
	}

	if user.Courses == nil {
		user.Courses = []models.Course{}
	}
	return nil
}

func (r *PgUserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	courses, err := r.coursesOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Courses = courses
	return user, nil
}

// GetByID retrieves a user by ID
func (r *PgUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `id::text = $1`, id)
}

// GetByEmail retrieves a user by email
func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `email = $1`, email)
}

// GetByUsername retrieves a user by username, ignoring case
func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `LOWER(username) = LOWER($1)`, username)
}

func (r *PgUserRepository) coursesOf(ctx context.Context, userID string) ([]models.Course, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, course_name, professor, location, time_slot
		FROM courses
		WHERE user_id::text = $1
		ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading courses: %w", err)
	}

	courses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Course, error) {
		var c models.Course
		err := row.Scan(&c.ID, &c.CourseName, &c.Professor, &c.Location, &c.Time)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning courses: %w", err)
	}
	return courses, nil
}

// ListUsers returns all users with their courses, oldest first
func (r *PgUserRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning users: %w", err)
	}

	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	courseRows, err := r.db.Pool.Query(ctx, `
		SELECT user_id::text, id, course_name, professor, location, time_slot
		FROM courses
		ORDER BY user_id, position`)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer courseRows.Close()

	for courseRows.Next() {
		var (
			userID string
			c      models.Course
		)
		if err := courseRows.Scan(&userID, &c.ID, &c.CourseName, &c.Professor, &c.Location, &c.Time); err != nil {
			return nil, fmt.Errorf("error scanning course: %w", err)
		}
		if u, ok := byID[userID]; ok {
			u.Courses = append(u.Courses, c)
		}
	}
	if err := courseRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	return users, nil
}

// ReplaceCourses replaces the user's course list in one transaction
func (r *PgUserRepository) ReplaceCourses(ctx context.Context, userID string, courses []models.Course, attachment *models.Attachment) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return apperrors.ErrUserNotFound
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var fileName, url *string
		var uploadedAt *time.Time
		if attachment != nil {
			fileName, url, uploadedAt = &attachment.FileName, &attachment.URL, &attachment.UploadedAt
		}

		tag, err := tx.Exec(ctx, `
			UPDATE users
			SET csv_file_name = $2, csv_url = $3, csv_uploaded_at = $4, updated_at = NOW()
			WHERE id::text = $1`,
			userID, fileName, url, uploadedAt)
		if err != nil {
			return fmt.Errorf("error updating user attachment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrUserNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM courses WHERE user_id = $1`, uid); err != nil {
			return fmt.Errorf("error clearing courses: %w", err)
		}

		if len(courses) == 0 {
			return nil
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"courses"},
			[]string{"user_id", "id", "position", "course_name", "professor", "location", "time_slot"},
			pgx.CopyFromSlice(len(courses), func(i int) ([]any, error) {
				c := courses[i]
				return []any{uid, c.ID, i, c.CourseName, c.Professor, c.Location, c.Time}, nil
			}))
		if err != nil {
			return fmt.Errorf("error inserting courses: %w", err)
		}
		return nil
	})
}

// UpdateOrigin updates the user's walking origin
func (r *PgUserRepository) UpdateOrigin(ctx context.Context, userID, origin string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE users
		SET origin = $2, updated_at = NOW()
		WHERE id::text = $1`,
		userID, origin)
	if err != nil {
		return fmt.Errorf("failed to update origin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
