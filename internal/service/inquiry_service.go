package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/AnkitRegmi1/TruSwap/internal/adapter/email"
	"github.com/AnkitRegmi1/TruSwap/internal/domain/entity"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
)

var ErrInquiryValidation = errors.New("inquiry validation failed")

// InquiryService delivers a buyer's question to the seller's inbox. The
// buyer's address goes in the body; campus relays strip Reply-To.
type InquiryService interface {
	ContactSeller(ctx context.Context, listing entity.Listing, buyerName, buyerEmail, message string) error
}

type inquiryService struct {
	sender email.EmailSender
	log    logger.Logger
}

func NewInquiryService(sender email.EmailSender, log logger.Logger) InquiryService {
	return &inquiryService{sender: sender, log: log}
}

func (s *inquiryService) ContactSeller(ctx context.Context, listing entity.Listing, buyerName, buyerEmail, message string) error {
	if listing.SellerEmail == "" {
		return fmt.Errorf("%w: listing has no seller email", ErrInquiryValidation)
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message is empty", ErrInquiryValidation)
	}

	subject := fmt.Sprintf("Inquiry about %s", listing.Title)

	bodyText := fmt.Sprintf("%s (%s) is interested in your listing %q:\n\n%s\n",
		buyerName, buyerEmail, listing.Title, message)
	bodyHTML := fmt.Sprintf(
		"<p><b>%s</b> (%s) is interested in your listing <b>%s</b>:</p><p>%s</p>",
		html.EscapeString(buyerName),
		html.EscapeString(buyerEmail),
		html.EscapeString(listing.Title),
		html.EscapeString(message),
	)

	if err := s.sender.Send(ctx, []string{listing.SellerEmail}, subject, bodyHTML, bodyText); err != nil {
		return fmt.Errorf("failed to deliver inquiry for listing %s: %w", listing.ID, err)
	}
	s.log.Infof("ContactSeller: inquiry for listing %s delivered", listing.ID)
	return nil
}
