package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AnkitRegmi1/TruSwap/internal/domain/entity"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
)

var ErrGroupValidation = errors.New("group validation failed")

type GroupAPI interface {
	FetchGroups(ctx context.Context) ([]entity.Group, error)
	FetchGroupByID(ctx context.Context, id string) (entity.Group, error)
	FetchMyGroups(ctx context.Context, token string) ([]entity.Group, error)
	CreateGroup(ctx context.Context, name, description, token string) (entity.Group, error)
	FetchListings(ctx context.Context) ([]entity.Listing, error)
}

type GroupService interface {
	List(ctx context.Context) ([]entity.Group, error)
	// Get returns the group together with its unsold listings.
	Get(ctx context.Context, id string) (entity.Group, []entity.Listing, error)
	MyGroups(ctx context.Context, token string) ([]entity.Group, error)
	Create(ctx context.Context, name, description, token string) (entity.Group, error)
}

type groupService struct {
	api GroupAPI
	log logger.Logger
}

func NewGroupService(api GroupAPI, log logger.Logger) GroupService {
	return &groupService{api: api, log: log}
}

func (s *groupService) List(ctx context.Context) ([]entity.Group, error) {
	return s.api.FetchGroups(ctx)
}

func (s *groupService) Get(ctx context.Context, id string) (entity.Group, []entity.Listing, error) {
	group, err := s.api.FetchGroupByID(ctx, id)
	if err != nil {
		return entity.Group{}, nil, err
	}

	// The backend has no per-group listings endpoint; filter the full page.
	listings, err := s.api.FetchListings(ctx)
	if err != nil {
		s.log.Warnf("Get: group %s loaded but listings fetch failed: %v", id, err)
		return group, nil, nil
	}
	return group, filterListings(listings, entity.ListingFilter{GroupID: id}), nil
}

func (s *groupService) MyGroups(ctx context.Context, token string) ([]entity.Group, error) {
	return s.api.FetchMyGroups(ctx, token)
}

func (s *groupService) Create(ctx context.Context, name, description, token string) (entity.Group, error) {
	if token == "" {
		return entity.Group{}, fmt.Errorf("%w: not authenticated", ErrGroupValidation)
	}
	if strings.TrimSpace(name) == "" {
		return entity.Group{}, fmt.Errorf("%w: name is required", ErrGroupValidation)
	}
	group, err := s.api.CreateGroup(ctx, name, description, token)
	if err != nil {
		return entity.Group{}, err
	}
	s.log.Infof("Create: group %q created", name)
	return group, nil
}
