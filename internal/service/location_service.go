package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// LocationService manages the location registry.
type LocationService struct {
	locations repository.LocationRepository
	tickets   repository.TicketRepository
}

// NewLocationService builds the service.
func NewLocationService(locations repository.LocationRepository, tickets repository.TicketRepository) *LocationService {
	return &LocationService{locations: locations, tickets: tickets}
}

// List returns all locations.
func (s *LocationService) List(ctx context.Context) ([]domain.Location, error) {
	return s.locations.List(ctx)
}

// Create registers a location.
func (s *LocationService) Create(ctx context.Context, name string) (*domain.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, util.NewValidationError("name required", nil)
	}
	location := &domain.Location{Name: name}
	if err := s.locations.Create(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// Update renames a location.
func (s *LocationService) Update(ctx context.Context, id, name string) (*domain.Location, error) {
	location, err := s.locations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("location", nil)
		}
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" || name == location.Name {
		return location, nil
	}
	location.Name = name
	if err := s.locations.Update(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// Delete removes a location unless open tickets still reference it.
func (s *LocationService) Delete(ctx context.Context, id string) error {
	if _, err := s.locations.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("location", nil)
		}
		return err
	}

	hasOpen, err := s.tickets.HasOpenByLocation(ctx, id)
	if err != nil {
		return err
	}
	if hasOpen {
		return util.NewConflict("cannot delete a location with pending or in-progress tickets", nil)
	}
	return s.locations.Delete(ctx, id)
}
