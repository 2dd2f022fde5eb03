package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"krishi/internal/database"
	"krishi/internal/domain"
	"krishi/internal/fulfillment"
	"krishi/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// UserService is the identity store surface: registration, authentication
// and the per-role population counts the evaluator needs.
type UserService struct {
	repo       domain.Repository
	logger     *zerolog.Logger
	bcryptCost int
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:       repo,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register validates and persists a new user. Role is immutable after this.
func (s *UserService) Register(ctx context.Context, user *models.User, password string) error {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", database.ErrInvalidInput)
	}
	if !models.ValidRole(user.Role) {
		return fmt.Errorf("%w: unknown role %q", database.ErrInvalidRole, user.Role)
	}
	if err := validateProfile(user); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.CreateUser(ctx, user, string(hash)); err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return nil
}

// Authenticate verifies credentials and returns the user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	id, hash, err := s.repo.GetCredentials(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, database.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, database.ErrInvalidCredentials
	}

	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
}

func (s *UserService) CountByRole(ctx context.Context, role string) (int, error) {
	return s.repo.CountUsersByRole(ctx, role)
}

// Population snapshots the global responder counts for one evaluation. The
// evaluator takes these as parameters so it stays pure.
func (s *UserService) Population(ctx context.Context) (fulfillment.Population, error) {
	labor, err := s.repo.CountUsersByRole(ctx, models.RoleLabor)
	if err != nil {
		return fulfillment.Population{}, err
	}
	machinery, err := s.repo.CountUsersByRole(ctx, models.RoleMachinery)
	if err != nil {
		return fulfillment.Population{}, err
	}
	return fulfillment.Population{Labor: labor, Machinery: machinery}, nil
}

func (s *UserService) UsersByRole(ctx context.Context, role string) ([]*models.User, error) {
	return s.repo.GetUsersByRole(ctx, role)
}

// validateProfile checks that the profile variant matches the role and no
// foreign variant is attached.
func validateProfile(user *models.User) error {
	wrongProfile := func(cond bool) error {
		if cond {
			return fmt.Errorf("%w: profile does not match role %q", database.ErrInvalidInput, user.Role)
		}
		return nil
	}

	switch user.Role {
	case models.RoleLandowner:
		if user.Landowner == nil {
			return fmt.Errorf("%w: landowner profile is required", database.ErrInvalidInput)
		}
		if user.Landowner.Acres < 0 {
			return fmt.Errorf("%w: acres must not be negative", database.ErrInvalidInput)
		}
		return wrongProfile(user.Labor != nil || user.Machinery != nil)
	case models.RoleLabor:
		if user.Labor == nil {
			user.Labor = &models.LaborProfile{}
		}
		return wrongProfile(user.Landowner != nil || user.Machinery != nil)
	case models.RoleMachinery:
		if user.Machinery == nil || user.Machinery.MachineType == "" {
			return fmt.Errorf("%w: machine type is required", database.ErrInvalidInput)
		}
		return wrongProfile(user.Landowner != nil || user.Labor != nil)
	case models.RoleAdmin:
		return wrongProfile(user.Landowner != nil || user.Labor != nil || user.Machinery != nil)
	}
	return nil
}
