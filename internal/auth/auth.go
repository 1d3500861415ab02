// Package auth is the authentication boundary: password hashing, token
// issue and synchronous verification. The core only ever sees the
// already-verified Actor it produces.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/harshvardhansingh3000/flower-inventory/internal/flowers"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUsernameTaken      = errors.New("username already exists")
)

type User struct {
	ID       int64        `json:"id"`
	Username string       `json:"username"`
	Role     flowers.Role `json:"role"`
}

type Claims struct {
	UserID int64        `json:"id"`
	Role   flowers.Role `json:"role"`
	jwt.StandardClaims
}

type Service struct {
	DB       *pgxpool.Pool
	Secret   []byte
	TokenTTL time.Duration
}

func NewService(db *pgxpool.Pool, secret string) *Service {
	return &Service{DB: db, Secret: []byte(secret), TokenTTL: time.Hour}
}

func (s *Service) Register(ctx context.Context, username, password string, role flowers.Role) (User, error) {
	if username == "" || password == "" || !flowers.ValidRole(role) {
		return User{}, flowers.ErrInvalidInput
	}
	var exists bool
	if err := s.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username=$1)`, username).Scan(&exists); err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{Username: username, Role: role}
	err = s.DB.QueryRow(ctx, `
		INSERT INTO users(username, password_hash, role)
		VALUES ($1, $2, $3) RETURNING id`,
		username, string(hash), role).Scan(&u.ID)
	return u, err
}

// Login checks the password and issues a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	var (
		u    User
		hash string
	)
	err := s.DB.QueryRow(ctx,
		`SELECT id, username, password_hash, role FROM users WHERE username=$1`,
		username).Scan(&u.ID, &u.Username, &hash, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.IssueToken(u.ID, u.Role)
}

func (s *Service) IssueToken(userID int64, role flowers.Role) (string, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(s.TokenTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// VerifyToken is the synchronous check the HTTP layer calls per request.
// It returns the verified actor or a typed rejection, never a callback.
func (s *Service) VerifyToken(tokenString string) (flowers.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.Secret, nil
	})
	if err != nil || !token.Valid {
		return flowers.Actor{}, ErrInvalidToken
	}
	if !flowers.ValidRole(claims.Role) {
		return flowers.Actor{}, ErrInvalidToken
	}
	return flowers.Actor{ID: claims.UserID, Role: claims.Role}, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx,
		`SELECT id, username, role FROM users WHERE id=$1`, userID).
		Scan(&u.ID, &u.Username, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, flowers.ErrNotFound
	}
	return u, err
}
