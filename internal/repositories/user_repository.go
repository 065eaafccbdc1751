package repositories

import (
	"context"
	"database/sql"
	"time"

	"controlhub/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
        INSERT INTO user_profiles (id, email, password, full_name, phone_number, gender, birthdate, role, is_verified, remaining_credits, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	user.CreatedAt = time.Now()
	user.UpdatedAt = &user.CreatedAt
	_, err := r.DB.ExecContext(ctx, query,
		user.ID, user.Email, user.Password, user.FullName, user.PhoneNumber, user.Gender,
		user.Birthdate, user.Role, user.IsVerified, user.RemainingCredits,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	query := `
        SELECT id, email, password, full_name, phone_number, gender, birthdate, role, is_verified, remaining_credits, fcm_token, created_at, updated_at
        FROM user_profiles
        WHERE id = ?
    `
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Password, &user.FullName, &user.PhoneNumber,
		&user.Gender, &user.Birthdate, &user.Role, &user.IsVerified,
		&user.RemainingCredits, &user.FCMToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	query := `
        SELECT id, email, password, full_name, phone_number, gender, birthdate, role, is_verified, remaining_credits, fcm_token, created_at, updated_at
        FROM user_profiles
        WHERE email = ?
    `
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Password, &user.FullName, &user.PhoneNumber,
		&user.Gender, &user.Birthdate, &user.Role, &user.IsVerified,
		&user.RemainingCredits, &user.FCMToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByPhone(ctx context.Context, phone string) (models.User, error) {
	var user models.User
	query := `SELECT id, email, full_name FROM user_profiles WHERE phone_number = ?`
	err := r.DB.QueryRowContext(ctx, query, phone).Scan(&user.ID, &user.Email, &user.FullName)
	if err == sql.ErrNoRows {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	query := `
        SELECT id, email, full_name, phone_number, gender, birthdate, role, is_verified, remaining_credits, created_at, updated_at
        FROM user_profiles
        ORDER BY updated_at DESC
    `
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Email, &user.FullName, &user.PhoneNumber, &user.Gender,
			&user.Birthdate, &user.Role, &user.IsVerified, &user.RemainingCredits,
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
        UPDATE user_profiles
        SET full_name = ?, phone_number = ?, gender = ?, birthdate = ?, fcm_token = ?, updated_at = ?
        WHERE id = ?
    `
	updatedAt := time.Now()
	user.UpdatedAt = &updatedAt
	result, err := r.DB.ExecContext(ctx, query,
		user.FullName, user.PhoneNumber, user.Gender, user.Birthdate, user.FCMToken,
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		return models.User{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.User{}, err
	}
	if rowsAffected == 0 {
		return models.User{}, models.ErrUserNotFound
	}
	return r.GetUserByID(ctx, user.ID)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hashed string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE user_profiles SET password = ?, updated_at = ? WHERE id = ?`,
		hashed, time.Now(), id,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE user_profiles SET is_verified = TRUE, updated_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	return err
}

func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM user_profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// GetRemainingCredits reads the current credit balance of a user.
func (r *UserRepository) GetRemainingCredits(ctx context.Context, id string) (int, error) {
	var credits int
	err := r.DB.QueryRowContext(ctx,
		`SELECT remaining_credits FROM user_profiles WHERE id = ?`, id,
	).Scan(&credits)
	if err == sql.ErrNoRows {
		return 0, models.ErrUserNotFound
	}
	return credits, err
}

// SetRemainingCredits writes an absolute credit balance.
func (r *UserRepository) SetRemainingCredits(ctx context.Context, id string, credits int) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE user_profiles SET remaining_credits = ?, updated_at = ? WHERE id = ?`,
		credits, time.Now(), id,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// ConsumeCredit atomically takes one credit off the balance. It returns
// models.ErrNoCredits when the balance is already zero.
func (r *UserRepository) ConsumeCredit(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE user_profiles SET remaining_credits = remaining_credits - 1, updated_at = ? WHERE id = ? AND remaining_credits > 0`,
		time.Now(), id,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrNoCredits
	}
	return nil
}

// RestoreCredit gives one credit back, compensating a consume whose
// follow-up write failed.
func (r *UserRepository) RestoreCredit(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE user_profiles SET remaining_credits = remaining_credits + 1, updated_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	return err
}

func (r *UserRepository) CreateSession(ctx context.Context, session models.Session) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO sessions (refresh_token, user_id, role, expires_at) VALUES (?, ?, ?, ?)`,
		session.RefreshToken, session.UserID, session.Role, session.ExpiresAt,
	)
	return err
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, token string) (models.Session, error) {
	var session models.Session
	err := r.DB.QueryRowContext(ctx,
		`SELECT refresh_token, user_id, role, expires_at FROM sessions WHERE refresh_token = ?`,
		token,
	).Scan(&session.RefreshToken, &session.UserID, &session.Role, &session.ExpiresAt)
	if err == sql.ErrNoRows {
		return models.Session{}, nil
	}
	return session, err
}

func (r *UserRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = ?`, token)
	return err
}
