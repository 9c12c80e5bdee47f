package model

import (
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // never serialized
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Token        string    `json:"token"`         // access token
	RefreshToken string    `json:"refresh_token"` // opaque refresh token
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	IsBlocked    bool      `json:"is_blocked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// CheckPassword compares a given password with the user's bcrypt hash.
func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

// CreateUser inserts a new user. The caller hashes the password first.
func (u *User) CreateUser(db *sql.DB) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
	INSERT INTO users (email, password, created_at, updated_at)
	VALUES (?, ?, ?, ?)`
	res, err := db.Exec(query, u.Email, u.Password, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// GetUserByEmail retrieves a user by email, the login key of this API.
func GetUserByEmail(db *sql.DB, email string) (*User, error) {
	query := `
	SELECT id, email, password, created_at, updated_at
	FROM users
	WHERE email = ?`

	var user User
	err := db.QueryRow(query, email).Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func GetUserByID(db *sql.DB, id int64) (*User, error) {
	query := `
	SELECT id, email, password, created_at, updated_at
	FROM users
	WHERE id = ?`

	var user User
	err := db.QueryRow(query, id).Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateSession inserts a new session for an issued token pair.
func CreateSession(db *sql.DB, session *Session) error {
	session.CreatedAt = time.Now().UTC()
	query := `
	INSERT INTO sessions (user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.Exec(query,
		session.UserID, session.Token, session.RefreshToken,
		session.UserAgent, session.ClientIP, session.IsBlocked,
		session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	session.ID = id
	return nil
}

func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	return getSessionBy(db, "token", token)
}

func GetSessionByRefreshToken(db *sql.DB, refreshToken string) (*Session, error) {
	return getSessionBy(db, "refresh_token", refreshToken)
}

func getSessionBy(db *sql.DB, column, value string) (*Session, error) {
	query := `
	SELECT id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at
	FROM sessions
	WHERE ` + column + ` = ? AND is_blocked = FALSE`

	var s Session
	err := db.QueryRow(query, value).Scan(
		&s.ID, &s.UserID, &s.Token, &s.RefreshToken,
		&s.UserAgent, &s.ClientIP, &s.IsBlocked, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("session not found")
		}
		return nil, err
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		return nil, errors.New("session expired")
	}
	return &s, nil
}

func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func DeleteSessionByID(db *sql.DB, id int64) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}
