package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// UserService covers administrator-driven account management.
type UserService struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	locations  repository.LocationRepository
	bcryptCost int
}

// UserDependencies bundles repositories for the user service.
type UserDependencies struct {
	UserRepo     repository.UserRepository
	TicketRepo   repository.TicketRepository
	LocationRepo repository.LocationRepository
	BcryptCost   int
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		tickets:    deps.TicketRepo,
		locations:  deps.LocationRepo,
		bcryptCost: deps.BcryptCost,
	}
}

// UserCreateInput describes admin user creation. Role is mandatory
// here, unlike registration where it defaults to requester.
type UserCreateInput struct {
	Name       string
	Email      string
	Role       string
	LocationID *string
}

// UserUpdateInput carries optional account changes.
type UserUpdateInput struct {
	Name       *string
	Email      *string
	Password   *string
	Role       *string
	LocationID *string
}

// CreatedUser couples the new account with its generated temporary
// password, returned exactly once.
type CreatedUser struct {
	User         *domain.User
	TempPassword string
}

// List returns all accounts.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Create registers an account on behalf of an administrator and
// generates a temporary password for it.
func (s *UserService) Create(ctx context.Context, input UserCreateInput) (*CreatedUser, error) {
	if strings.TrimSpace(input.Role) == "" {
		return nil, util.NewValidationError("role required", nil)
	}
	role, err := domain.NormalizeRole(input.Role)
	if err != nil {
		return nil, util.NewValidationError(err.Error(), nil)
	}

	locationID, err := s.resolveLocation(ctx, role, input.LocationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, util.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	tempPassword, err := generatePassword(12)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(tempPassword, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		Role:         role,
		LocationID:   locationID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return &CreatedUser{User: user, TempPassword: tempPassword}, nil
}

// Update applies partial changes to an account, enforcing the
// role/location binding rules.
func (s *UserService) Update(ctx context.Context, id string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("user", nil)
		}
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		existing, err := s.users.GetByEmail(ctx, *input.Email)
		if err == nil && existing.ID != id {
			return nil, util.NewConflict("email already registered", nil)
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		user.Email = *input.Email
	}
	if input.Name != nil {
		user.Name = *input.Name
	}

	role := user.Role
	if input.Role != nil {
		role, err = domain.NormalizeRole(*input.Role)
		if err != nil {
			return nil, util.NewValidationError(err.Error(), nil)
		}
	}

	locationInput := input.LocationID
	if locationInput == nil {
		locationInput = user.LocationID
	}
	locationID, err := s.resolveLocation(ctx, role, locationInput)
	if err != nil {
		return nil, err
	}
	user.Role = role
	user.LocationID = locationID

	if input.Password != nil && *input.Password != "" {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes an account unless it still has open tickets either as
// requester or as assigned technician.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("user", nil)
		}
		return err
	}

	hasOpen, err := s.tickets.HasOpenByUser(ctx, id)
	if err != nil {
		return err
	}
	if hasOpen {
		return util.NewConflict("user has open tickets and cannot be removed", nil)
	}
	return s.users.Delete(ctx, id)
}

// resolveLocation enforces the binding rules: requesters must carry a
// valid location, other roles must not carry one.
func (s *UserService) resolveLocation(ctx context.Context, role domain.Role, locationID *string) (*string, error) {
	if role != domain.RoleRequester {
		return nil, nil
	}
	if locationID == nil || *locationID == "" {
		return nil, util.NewValidationError("location_id is required for requesters", nil)
	}
	if _, err := s.locations.GetByID(ctx, *locationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewValidationError("invalid location", nil)
		}
		return nil, err
	}
	return locationID, nil
}

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

func generatePassword(length int) (string, error) {
	out := make([]byte, length)
	for i := range out {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordCharset))))
		if err != nil {
			return "", err
		}
		out[i] = passwordCharset[idx.Int64()]
	}
	return string(out), nil
}
