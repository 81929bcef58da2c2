package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/storefront/internal/common"
	"github.com/noah-isme/storefront/internal/store"
)

// ErrNotFound is returned when the caller has no profile yet.
var ErrNotFound = errors.New("profile: not found")

type queryProvider interface {
	GetUser(ctx context.Context, id string) (store.User, error)
	UpsertUser(ctx context.Context, id, phone string) (store.User, error)
	UpdateUserName(ctx context.Context, id, name string) (store.User, error)
}

// Profile is the account view returned to the owner.
type Profile struct {
	ID          string  `json:"id"`
	PhoneNumber string  `json:"phoneNumber"`
	Name        *string `json:"name"`
}

// UpdateNameRequest is the payload of PUT /profile.
type UpdateNameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=80"`
}

// Service reads and updates the caller's profile.
type Service struct {
	queries queryProvider
}

// NewService constructs a Service instance.
func NewService(q queryProvider) (*Service, error) {
	if q == nil {
		return nil, errors.New("profile: queries provider is required")
	}
	return &Service{queries: q}, nil
}

// Get returns the caller's profile.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	user, err := s.queries.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Profile{}, fmt.Errorf("%w: user %q", ErrNotFound, userID)
		}
		return Profile{}, fmt.Errorf("get user: %w", err)
	}
	return toProfile(user), nil
}

// Ensure creates the profile on first sign-in. Later calls refresh the phone
// number and keep the name.
func (s *Service) Ensure(ctx context.Context, userID, phone string) (Profile, error) {
	user, err := s.queries.UpsertUser(ctx, userID, strings.TrimSpace(phone))
	if err != nil {
		return Profile{}, fmt.Errorf("upsert user: %w", err)
	}
	return toProfile(user), nil
}

// UpdateName sets the display name after trimming surrounding whitespace.
func (s *Service) UpdateName(ctx context.Context, userID string, req UpdateNameRequest) (Profile, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := common.ValidateStruct(req); err != nil {
		return Profile{}, err
	}
	user, err := s.queries.UpdateUserName(ctx, userID, req.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Profile{}, fmt.Errorf("%w: user %q", ErrNotFound, userID)
		}
		return Profile{}, fmt.Errorf("update name: %w", err)
	}
	return toProfile(user), nil
}

func toProfile(u store.User) Profile {
	return Profile{ID: u.ID, PhoneNumber: u.PhoneNumber, Name: u.Name}
}
