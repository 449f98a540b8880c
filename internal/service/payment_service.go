package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/AnkitRegmi1/TruSwap/internal/adapter/client"
	"github.com/AnkitRegmi1/TruSwap/internal/auth"
	"github.com/AnkitRegmi1/TruSwap/internal/domain/entity"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/metrics"
	"github.com/AnkitRegmi1/TruSwap/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrListingSold       = errors.New("listing is already sold")
	ErrPaymentInitiation = errors.New("payment initiation failed")
	ErrPaymentExecution  = errors.New("payment execution failed")
	ErrMissingPaymentID  = errors.New("callback is missing the payment identifier")
)

// fromPaymentKey is the session marker listing views consume once to force
// a refresh after a purchase, so the just-bought listing shows as sold.
const fromPaymentKey = "fromPayment"

// PaymentAPI is the slice of the marketplace API the payment flow needs.
type PaymentAPI interface {
	FetchListingByID(ctx context.Context, id string) (entity.Listing, error)
	CreatePayment(ctx context.Context, listingID string, price float64, itemName, token, buyerEmail, buyerName, buyerUserID, successURL, cancelURL string) (string, error)
	ExecutePayment(ctx context.Context, paymentID, payerID, listingID, buyerUserID string) (client.ExecuteResult, error)
}

type PaymentService interface {
	Initiate(ctx context.Context, in InitiateInput) (string, error)
	ResolveCallback(query url.Values) (entity.PaymentCallback, error)
	CompleteFromCallback(ctx context.Context, cb entity.PaymentCallback) (entity.OrderResult, error)
}

type InitiateInput struct {
	ListingID  string
	Price      float64
	ItemName   string
	Token      string
	BuyerEmail string
	BuyerName  string
	BuyerID    string
}

type paymentService struct {
	api     PaymentAPI
	ledger  SettlementLedger
	state   repository.ProfileStateRepository
	sleeper Sleeper
	metrics *metrics.Manager
	log     logger.Logger
	cfg     PaymentServiceConfig
	tracer  trace.Tracer
}

type PaymentServiceConfig struct {
	// Origin is the application root the provider redirects back to.
	Origin string
	// ConfirmationDelay is waited before reporting an upstream-settled
	// callback as done, so the confirmation stays readable.
	ConfirmationDelay time.Duration
}

func NewPaymentService(
	api PaymentAPI,
	ledger SettlementLedger,
	state repository.ProfileStateRepository,
	sleeper Sleeper,
	mm *metrics.Manager,
	log logger.Logger,
	cfg PaymentServiceConfig,
) PaymentService {
	if sleeper == nil {
		sleeper = &DefaultSleeper{}
	}
	return &paymentService{
		api:     api,
		ledger:  ledger,
		state:   state,
		sleeper: sleeper,
		metrics: mm,
		log:     log,
		cfg:     cfg,
		tracer:  otel.Tracer("truswap/payment"),
	}
}

// Initiate creates a provider checkout session for a listing and returns
// the approval URL. The caller must perform a full top-level navigation to
// it; the provider will not collect credentials inside a frame or fetch.
func (s *paymentService) Initiate(ctx context.Context, in InitiateInput) (string, error) {
	ctx, span := s.tracer.Start(ctx, "payment.initiate",
		trace.WithAttributes(attribute.String("listing_id", in.ListingID)))
	defer span.End()

	if in.Token == "" {
		return "", fmt.Errorf("%w: not authenticated", ErrPaymentInitiation)
	}

	listing, err := s.api.FetchListingByID(ctx, in.ListingID)
	if err != nil {
		s.log.Errorf("Initiate: failed to fetch listing %s: %v", in.ListingID, err)
		return "", fmt.Errorf("%w: %v", ErrPaymentInitiation, err)
	}
	if listing.IsSold {
		s.log.Warnf("Initiate: listing %s is already sold", in.ListingID)
		return "", ErrListingSold
	}

	// Fill buyer contact from the token claims when the caller didn't.
	// Receipt metadata only, never authorization.
	email, name, buyerID := in.BuyerEmail, in.BuyerName, in.BuyerID
	if email == "" || name == "" || buyerID == "" {
		if ident, idErr := auth.IdentityFromToken(in.Token); idErr == nil {
			if email == "" {
				email = ident.Email
			}
			if name == "" {
				name = ident.Name
			}
			if buyerID == "" {
				buyerID = ident.Subject
			}
		}
	}

	successURL := s.cfg.Origin + "/paypal-checkout"
	cancelURL := s.cfg.Origin + "/payment-cancel"

	approvalURL, err := s.api.CreatePayment(ctx, in.ListingID, in.Price, in.ItemName, in.Token, email, name, buyerID, successURL, cancelURL)
	if err != nil {
		s.log.Errorf("Initiate: create payment failed for listing %s: %v", in.ListingID, err)
		return "", fmt.Errorf("%w: %v", ErrPaymentInitiation, err)
	}
	if approvalURL == "" {
		s.log.Errorf("Initiate: backend returned no approval URL for listing %s", in.ListingID)
		return "", fmt.Errorf("%w: no approval URL in response", ErrPaymentInitiation)
	}

	s.log.Infof("Initiate: payment session created for listing %s", in.ListingID)
	return approvalURL, nil
}

// ResolveCallback classifies the provider's return redirect once, at entry.
// The payer identifier arrives as PayerID; the casing is provider-fixed.
func (s *paymentService) ResolveCallback(query url.Values) (entity.PaymentCallback, error) {
	paymentID := query.Get("paymentId")
	if paymentID == "" {
		paymentID = query.Get("payment_id")
	}
	if paymentID == "" {
		return entity.PaymentCallback{}, ErrMissingPaymentID
	}

	payerID := query.Get("PayerID")
	cb := entity.PaymentCallback{
		PaymentID:   paymentID,
		PayerID:     payerID,
		ListingID:   query.Get("listingId"),
		BuyerUserID: query.Get("buyerUserId"),
	}
	if payerID == "" {
		cb.Shape = entity.CallbackAlreadyExecuted
	} else {
		cb.Shape = entity.CallbackNeedsExecution
	}
	return cb, nil
}

// CompleteFromCallback drives a resolved callback to a confirmed order,
// executing the payment session at most once per payment id.
func (s *paymentService) CompleteFromCallback(ctx context.Context, cb entity.PaymentCallback) (entity.OrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "payment.complete",
		trace.WithAttributes(attribute.String("payment_id", cb.PaymentID)))
	defer span.End()

	if cb.Shape == entity.CallbackAlreadyExecuted {
		// Settlement happened upstream; only the confirmation remains.
		s.metrics.PaymentDuplicatesTotal.Inc()
		s.markJustCompleted(ctx)
		if err := s.sleeper.Sleep(ctx, s.cfg.ConfirmationDelay); err != nil {
			return entity.OrderResult{}, err
		}
		return entity.OrderResult{
			PaymentID:      cb.PaymentID,
			ListingID:      cb.ListingID,
			State:          entity.StateAlreadySettled,
			AlreadySettled: true,
		}, nil
	}

	// Latch before the call resolves, not after: a second delivery arriving
	// while the first is in flight must not reach the network.
	if !s.ledger.Begin(cb.PaymentID) {
		s.metrics.PaymentDuplicatesTotal.Inc()
		s.log.Infof("CompleteFromCallback: payment %s already latched, treating as settled", cb.PaymentID)
		return entity.OrderResult{
			PaymentID:      cb.PaymentID,
			ListingID:      cb.ListingID,
			State:          entity.StateAlreadySettled,
			AlreadySettled: true,
		}, nil
	}

	started := time.Now()
	result, err := s.api.ExecutePayment(ctx, cb.PaymentID, cb.PayerID, cb.ListingID, cb.BuyerUserID)
	s.metrics.SettlementLatencySecond.Observe(time.Since(started).Seconds())
	if err != nil {
		if client.IsAlreadySettled(err) {
			// Duplicate delivery of the approval redirect. Not an error.
			s.metrics.PaymentDuplicatesTotal.Inc()
			s.log.Infof("CompleteFromCallback: payment %s was already executed upstream", cb.PaymentID)
			s.ledger.MarkSettled(cb.PaymentID)
			s.markJustCompleted(ctx)
			return entity.OrderResult{
				PaymentID:      cb.PaymentID,
				ListingID:      cb.ListingID,
				State:          entity.StateAlreadySettled,
				AlreadySettled: true,
			}, nil
		}
		// Genuine failure: free the latch so a deliberate retry can pass.
		s.metrics.PaymentFailuresTotal.Inc()
		s.ledger.Release(cb.PaymentID)
		s.log.Errorf("CompleteFromCallback: execute failed for payment %s: %v", cb.PaymentID, err)
		return entity.OrderResult{}, fmt.Errorf("%w: %v", ErrPaymentExecution, err)
	}

	if result.Status != "success" {
		s.metrics.PaymentFailuresTotal.Inc()
		s.ledger.Release(cb.PaymentID)
		msg := result.Message
		if msg == "" {
			msg = "payment failed"
		}
		s.log.Errorf("CompleteFromCallback: backend rejected payment %s: %s", cb.PaymentID, msg)
		return entity.OrderResult{}, fmt.Errorf("%w: %s", ErrPaymentExecution, msg)
	}

	s.ledger.MarkSettled(cb.PaymentID)
	s.metrics.PaymentsSettledTotal.Inc()
	s.markJustCompleted(ctx)
	s.log.Infof("CompleteFromCallback: payment %s settled", cb.PaymentID)

	state := entity.StateSucceeded
	if result.AlreadyProcessed {
		state = entity.StateAlreadySettled
	}
	return entity.OrderResult{
		PaymentID:      cb.PaymentID,
		ListingID:      cb.ListingID,
		State:          state,
		Message:        result.Message,
		AlreadySettled: result.AlreadyProcessed,
	}, nil
}

func (s *paymentService) markJustCompleted(ctx context.Context) {
	if err := s.state.SetSession(ctx, fromPaymentKey, "true"); err != nil {
		// Listing views just miss one forced refresh.
		s.log.Warnf("Failed to set %s marker: %v", fromPaymentKey, err)
	}
}
