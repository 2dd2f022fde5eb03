package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"krishi/internal/models"
)

const userColumns = `id, username, role, name, address, contact, district,
                     acres, crops, workers, machine_type, created_at, updated_at`

// CreateUser persists a new user with the given password hash. The username
// unique constraint maps to ErrDuplicateUsername.
func (db *DB) CreateUser(ctx context.Context, user *models.User, passwordHash string) error {
	var acres, workers sql.NullInt64
	var crops, machineType sql.NullString
	switch {
	case user.Landowner != nil:
		acres = sql.NullInt64{Int64: user.Landowner.Acres, Valid: true}
		crops = sql.NullString{String: user.Landowner.Crops, Valid: true}
	case user.Labor != nil:
		workers = sql.NullInt64{Int64: user.Labor.Workers, Valid: true}
	case user.Machinery != nil:
		machineType = sql.NullString{String: user.Machinery.MachineType, Valid: true}
	}

	query := `INSERT INTO users (
				username, password_hash, role, name, address, contact, district,
				acres, crops, workers, machine_type, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		user.Username,
		passwordHash,
		user.Role,
		user.Name,
		user.Address,
		user.Contact,
		user.District,
		acres,
		crops,
		workers,
		machineType,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return db.queryUser(ctx, query, id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return db.queryUser(ctx, query, username)
}

// GetCredentials returns the user id and password hash for a username.
func (db *DB) GetCredentials(ctx context.Context, username string) (int64, string, error) {
	query := `SELECT id, password_hash FROM users WHERE username = ?`
	var id int64
	var hash string
	err := db.QueryRowContext(ctx, query, username).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to get credentials: %w", err)
	}
	return id, hash, nil
}

// CountUsersByRole returns the number of registered users with the role.
// The fulfillment evaluator takes these counts as its population parameters.
func (db *DB) CountUsersByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}

func (db *DB) GetUsersByRole(ctx context.Context, role string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by role: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	row := db.QueryRowContext(ctx, query, args...)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var name, address, contact, district sql.NullString
	var acres, workers sql.NullInt64
	var crops, machineType sql.NullString
	err := row.Scan(
		&user.ID, &user.Username, &user.Role,
		&name, &address, &contact, &district,
		&acres, &crops, &workers, &machineType,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Name = name.String
	user.Address = address.String
	user.Contact = contact.String
	user.District = district.String

	// Rehydrate the role profile. Only the matching variant is populated.
	switch user.Role {
	case models.RoleLandowner:
		user.Landowner = &models.LandownerProfile{Acres: acres.Int64, Crops: crops.String}
	case models.RoleLabor:
		user.Labor = &models.LaborProfile{Workers: workers.Int64}
	case models.RoleMachinery:
		user.Machinery = &models.MachineryProfile{MachineType: machineType.String}
	}
	return &user, nil
}
