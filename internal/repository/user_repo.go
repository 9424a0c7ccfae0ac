package repository

import (
	"database/sql"
	"fmt"
	"time"

	"playlearn/internal/database"
	"playlearn/internal/models"
)

// UserRepository handles database operations for parent accounts
type UserRepository struct {
	db database.Querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *UserRepository) WithTx(tx *database.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

const userColumns = "id, email, name, role, subscription_status, subscription_expires_at, created_at, updated_at"

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var expiresAt sql.NullTime
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.SubscriptionStatus,
		&expiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.SubscriptionExpiresAt = timePtr(expiresAt)
	return user, nil
}

// GetUserByID retrieves a user by ID. It returns nil when no user exists.
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	user, err := scanUser(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email. It returns nil when no user exists.
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	user, err := scanUser(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetAllUsers retrieves all users ordered by ID
func (r *UserRepository) GetAllUsers() ([]models.User, error) {
	rows, err := r.db.Query("SELECT " + userColumns + " FROM users ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// CreateUser inserts a user and sets its ID
func (r *UserRepository) CreateUser(user *models.User) error {
	now := time.Now().UTC()
	if user.Role == "" {
		user.Role = models.RoleParent
	}
	if user.SubscriptionStatus == "" {
		user.SubscriptionStatus = models.SubscriptionNone
	}

	query := `INSERT INTO users (email, name, role, subscription_status, subscription_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, user.Email, user.Name, user.Role, user.SubscriptionStatus,
		nullTime(user.SubscriptionExpiresAt), now, now)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// UpdateSubscription records the subscription state reported by billing
func (r *UserRepository) UpdateSubscription(userID int64, status string, expiresAt *time.Time) error {
	query := "UPDATE users SET subscription_status = ?, subscription_expires_at = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, status, nullTime(expiresAt), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}
