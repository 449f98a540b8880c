package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AnkitRegmi1/TruSwap/internal/domain/entity"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/AnkitRegmi1/TruSwap/internal/repository"
)

var ErrListingValidation = errors.New("listing validation failed")

// ListingAPI is the slice of the marketplace API the listing flows use.
type ListingAPI interface {
	FetchListings(ctx context.Context) ([]entity.Listing, error)
	FetchListingByID(ctx context.Context, id string) (entity.Listing, error)
	FetchMyListings(ctx context.Context, token string) ([]entity.Listing, error)
	CreateListing(ctx context.Context, l entity.Listing, token string) error
	FetchGroupByID(ctx context.Context, id string) (entity.Group, error)
}

// ImageUploader stores a listing image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, originalFileName string, data []byte) (string, error)
}

type CreateListingInput struct {
	Title       string
	Description string
	Category    string
	Price       float64
	Condition   string
	GroupID     string
	ListingType entity.ListingType
	Token       string
	SellerName  string
	SellerEmail string

	// ImageFileName and ImageData, when set, are uploaded first and the
	// resulting URL goes on the listing.
	ImageFileName string
	ImageData     []byte
}

type ListingService interface {
	Browse(ctx context.Context, filter entity.ListingFilter) ([]entity.Listing, error)
	// Get returns one listing with its group attached when it has one.
	Get(ctx context.Context, id string) (entity.Listing, error)
	MyListings(ctx context.Context, token string) ([]entity.Listing, error)
	Create(ctx context.Context, in CreateListingInput) error
	// ConsumeRefreshFlag reports whether a purchase just completed and
	// clears the marker, so exactly one browse forces fresh data.
	ConsumeRefreshFlag(ctx context.Context) bool
}

type listingService struct {
	api      ListingAPI
	uploader ImageUploader
	state    repository.ProfileStateRepository
	log      logger.Logger
}

func NewListingService(api ListingAPI, uploader ImageUploader, state repository.ProfileStateRepository, log logger.Logger) ListingService {
	return &listingService{
		api:      api,
		uploader: uploader,
		state:    state,
		log:      log,
	}
}

func (s *listingService) Browse(ctx context.Context, filter entity.ListingFilter) ([]entity.Listing, error) {
	listings, err := s.api.FetchListings(ctx)
	if err != nil {
		return nil, err
	}
	return filterListings(listings, filter), nil
}

func (s *listingService) Get(ctx context.Context, id string) (entity.Listing, error) {
	listing, err := s.api.FetchListingByID(ctx, id)
	if err != nil {
		return entity.Listing{}, err
	}

	if listing.GroupID != "" {
		// Group context enriches the detail view; the listing stands
		// alone without it.
		group, gErr := s.api.FetchGroupByID(ctx, listing.GroupID)
		if gErr != nil {
			s.log.Warnf("Get: failed to load group %s for listing %s: %v", listing.GroupID, id, gErr)
		} else {
			listing.Group = &group
		}
	}
	return listing, nil
}

func (s *listingService) MyListings(ctx context.Context, token string) ([]entity.Listing, error) {
	return s.api.FetchMyListings(ctx, token)
}

func (s *listingService) Create(ctx context.Context, in CreateListingInput) error {
	if in.Token == "" {
		return fmt.Errorf("%w: not authenticated", ErrListingValidation)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrListingValidation)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrListingValidation)
	}

	imageURL := ""
	if len(in.ImageData) > 0 {
		if s.uploader == nil {
			return fmt.Errorf("%w: image storage is not configured", ErrListingValidation)
		}
		url, err := s.uploader.Upload(ctx, in.ImageFileName, in.ImageData)
		if err != nil {
			return fmt.Errorf("failed to upload listing image: %w", err)
		}
		imageURL = url
	}

	listing := entity.Listing{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Condition:   in.Condition,
		ImageURL:    imageURL,
		SellerName:  in.SellerName,
		SellerEmail: in.SellerEmail,
		GroupID:     in.GroupID,
		ListingType: in.ListingType,
	}
	if err := s.api.CreateListing(ctx, listing, in.Token); err != nil {
		return err
	}
	s.log.Infof("Create: listing %q posted", in.Title)
	return nil
}

func (s *listingService) ConsumeRefreshFlag(ctx context.Context) bool {
	val, err := s.state.GetSession(ctx, fromPaymentKey)
	if err != nil || val == "" {
		return false
	}
	if err := s.state.DeleteSession(ctx, fromPaymentKey); err != nil {
		s.log.Warnf("ConsumeRefreshFlag: failed to clear %s marker: %v", fromPaymentKey, err)
	}
	return true
}

func filterListings(listings []entity.Listing, f entity.ListingFilter) []entity.Listing {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]entity.Listing, 0, len(listings))
	for _, l := range listings {
		if !f.IncludeSold && l.IsSold {
			continue
		}
		if f.Category != "" && l.Category != f.Category {
			continue
		}
		if f.ListingType != "" && l.ListingType != f.ListingType {
			continue
		}
		if f.GroupID != "" && l.GroupID != f.GroupID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(l.Title), query) &&
			!strings.Contains(strings.ToLower(l.Description), query) {
			continue
		}
		out = append(out, l)
	}
	return out
}
