package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jamiec/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// UserService manages office accounts.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService instance.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// EnsureUser 确保后台账号存在且密码与配置一致，密码变化时重新生成哈希。
func (s *UserService) EnsureUser(ctx context.Context, username, password string) (*db.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	var user db.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
			return &user, nil
		}
		hash, err := hashPassword(password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		if err := s.db.WithContext(ctx).Model(&user).Update("password_hash", hash).Error; err != nil {
			return nil, fmt.Errorf("update password for %q: %w", username, err)
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := hashPassword(password)
		if err != nil {
			return nil, err
		}
		user = db.User{Username: username, PasswordHash: hash}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user %q: %w", username, err)
		}
		return &user, nil
	default:
		return nil, err
	}
}

// Authenticate checks a username and password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*db.User, error) {
	var user db.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get loads an office user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*db.User, error) {
	var user db.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}
