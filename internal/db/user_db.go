package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrEmailTaken возвращается при попытке регистрации с уже занятым email
var ErrEmailTaken = errors.New("email уже зарегистрирован")

// User представляет пользователя в системе
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUser создает нового пользователя с email и паролем
func CreateUser(name, email, passwordHash, location string) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	var userID uuid.UUID
	err := Pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, location)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, name, email, passwordHash, location).Scan(&userID)

	if err != nil {
		// Уникальный индекс на email превращает гонку двух регистраций в конфликт
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
	}

	return GetUserByID(userID)
}

// GetUserByEmail получает пользователя и хеш его пароля по email
func GetUserByEmail(email string) (*User, string, error) {
	ctx, cancel := GetContext()
	defer cancel()

	var user User
	var phone, location, avatarURL, passwordHash pgtype.Text

	err := Pool.QueryRow(ctx, `
		SELECT id, name, email, phone, location, avatar_url, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Name, &user.Email, &phone, &location, &avatarURL,
		&passwordHash, &user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		return nil, "", err
	}

	fillOptional(&user, phone, location, avatarURL)
	return &user, passwordHash.String, nil
}

// GetUserByID получает пользователя по ID
func GetUserByID(userID uuid.UUID) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	var user User
	var phone, location, avatarURL pgtype.Text

	err := Pool.QueryRow(ctx, `
		SELECT id, name, email, phone, location, avatar_url, created_at, updated_at
		FROM users WHERE id = $1
	`, userID).Scan(
		&user.ID, &user.Name, &user.Email, &phone, &location, &avatarURL,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	fillOptional(&user, phone, location, avatarURL)
	return &user, nil
}

// UpdateUserProfile обновляет редактируемые поля профиля
func UpdateUserProfile(userID uuid.UUID, name, phone, location, avatarURL string) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	_, err := Pool.Exec(ctx, `
		UPDATE users
		SET name = $1, phone = $2, location = $3, avatar_url = $4, updated_at = NOW()
		WHERE id = $5
	`, name, phone, location, avatarURL, userID)

	if err != nil {
		return nil, fmt.Errorf("ошибка при обновлении профиля: %w", err)
	}

	return GetUserByID(userID)
}

// CreateOrUpdateTelegramUser создает пользователя по данным Telegram или обновляет существующего
func CreateOrUpdateTelegramUser(telegramID int64, name, username, photoURL string, rawData []byte) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	tx, err := Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT user_id FROM telegram_users WHERE telegram_id = $1
	`, telegramID).Scan(&userID)

	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("ошибка при поиске Telegram пользователя: %w", err)
	}

	if err == pgx.ErrNoRows {
		// Telegram не отдает email, поэтому генерируем технический адрес
		placeholderEmail := fmt.Sprintf("tg%d@telegram.local", telegramID)

		err = tx.QueryRow(ctx, `
			INSERT INTO users (name, email, avatar_url)
			VALUES ($1, $2, $3)
			RETURNING id
		`, name, placeholderEmail, photoURL).Scan(&userID)

		if err != nil {
			return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO telegram_users (user_id, telegram_id, username, photo_url, raw_data)
			VALUES ($1, $2, $3, $4, $5)
		`, userID, telegramID, username, photoURL, rawData)

		if err != nil {
			return nil, fmt.Errorf("ошибка при создании Telegram пользователя: %w", err)
		}
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE telegram_users
			SET username = $1, photo_url = $2, raw_data = $3, updated_at = NOW()
			WHERE telegram_id = $4
		`, username, photoURL, rawData, telegramID)

		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении Telegram пользователя: %w", err)
		}
	}

	user, err := getUserByIDTx(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return user, nil
}

// getUserByIDTx получает пользователя по ID внутри транзакции
func getUserByIDTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*User, error) {
	var user User
	var phone, location, avatarURL pgtype.Text

	err := tx.QueryRow(ctx, `
		SELECT id, name, email, phone, location, avatar_url, created_at, updated_at
		FROM users WHERE id = $1
	`, userID).Scan(
		&user.ID, &user.Name, &user.Email, &phone, &location, &avatarURL,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	fillOptional(&user, phone, location, avatarURL)
	return &user, nil
}

// fillOptional преобразует nullable поля
func fillOptional(user *User, phone, location, avatarURL pgtype.Text) {
	if phone.Valid {
		user.Phone = phone.String
	}
	if location.Valid {
		user.Location = location.String
	}
	if avatarURL.Valid {
		user.AvatarURL = avatarURL.String
	}
}
