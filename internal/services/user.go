package services

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/repository"
	"github.com/diewo77/go-pos/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// UserUpdate lists the user fields to change. Nil fields are left alone.
type UserUpdate struct {
	Username *string          `json:"username,omitempty"`
	Password *string          `json:"password,omitempty"`
	Role     *models.UserRole `json:"role,omitempty"`
}

type UserService struct {
	db   *gorm.DB
	cost int
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost used for new hashes.
func (s *UserService) WithCost(cost int) *UserService {
	s.cost = cost
	return s
}

func (s *UserService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func checkCredentials(username, password string, v validation.Violations) {
	validation.MinLength("username", username, minUsernameLength, v)
	validation.MinLength("password", password, minPasswordLength, v)
}

func checkRole(role models.UserRole, v validation.Violations) {
	validation.OneOf("role", string(role), []string{string(models.RoleAdmin), string(models.RoleEmployee)}, v)
}

func (s *UserService) CreateUser(ctx context.Context, username, password string, role models.UserRole) (*models.User, error) {
	username = strings.TrimSpace(username)
	if role == "" {
		role = models.RoleEmployee
	}
	v := validation.Violations{}
	checkCredentials(username, password, v)
	checkRole(role, v)
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	u := &models.User{Username: username, PasswordHash: hash, Role: role}
	if err := repository.NewUserRepository(s.db).Create(ctx, u); err != nil {
		if apperr.IsConflict(err) {
			return nil, apperr.ErrDuplicateUsername
		}
		return nil, err
	}
	logger.Info("user %q created with role %s", u.Username, u.Role)
	return u, nil
}

// Authenticate returns the user matching the credentials. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := repository.NewUserRepository(s.db).GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logger.Warn("user %d has an unreadable password hash: %v", u.ID, err)
		}
		return nil, apperr.ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id uint, current, next string) error {
	repo := repository.NewUserRepository(s.db)
	u, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return apperr.ErrInvalidCredentials
	}
	v := validation.Violations{}
	validation.MinLength("password", next, minPasswordLength, v)
	if err := v.Err(); err != nil {
		return err
	}
	hash, err := s.hash(next)
	if err != nil {
		return apperr.Storage(err)
	}
	u.PasswordHash = hash
	return repo.Update(ctx, u)
}

func (s *UserService) UpdateRole(ctx context.Context, id uint, role models.UserRole) (*models.User, error) {
	return s.UpdateUser(ctx, id, UserUpdate{Role: &role})
}

func (s *UserService) UpdateUser(ctx context.Context, id uint, upd UserUpdate) (*models.User, error) {
	v := validation.Violations{}
	if upd.Username != nil {
		trimmed := strings.TrimSpace(*upd.Username)
		upd.Username = &trimmed
		validation.MinLength("username", trimmed, minUsernameLength, v)
	}
	if upd.Password != nil {
		validation.MinLength("password", *upd.Password, minPasswordLength, v)
	}
	if upd.Role != nil {
		checkRole(*upd.Role, v)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	repo := repository.NewUserRepository(s.db)
	u, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.ErrUserNotFound
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Password != nil {
		if u.PasswordHash, err = s.hash(*upd.Password); err != nil {
			return nil, apperr.Storage(err)
		}
	}
	if err := repo.Update(ctx, u); err != nil {
		if apperr.IsConflict(err) {
			return nil, apperr.ErrDuplicateUsername
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	deleted, err := repository.NewUserRepository(s.db).Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.ErrUserNotFound
	}
	logger.Info("user %d deleted", id)
	return nil
}

// GetUser returns nil when the user does not exist.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return repository.NewUserRepository(s.db).Get(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, page, perPage int) (repository.Page[models.User], error) {
	return repository.NewUserRepository(s.db).Paginate(ctx, page, perPage)
}

// CheckPermission reports whether user may act with the required role.
func CheckPermission(user *models.User, required models.UserRole) bool {
	return user != nil && user.HasRole(required)
}
