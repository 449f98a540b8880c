package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/AnkitRegmi1/TruSwap/internal/adapter/client"
	"github.com/AnkitRegmi1/TruSwap/internal/adapter/memory"
	"github.com/AnkitRegmi1/TruSwap/internal/domain/entity"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentAPI struct {
	mock.Mock
}

func (m *MockPaymentAPI) FetchListingByID(ctx context.Context, id string) (entity.Listing, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entity.Listing), args.Error(1)
}

func (m *MockPaymentAPI) CreatePayment(ctx context.Context, listingID string, price float64, itemName, token, buyerEmail, buyerName, buyerUserID, successURL, cancelURL string) (string, error) {
	args := m.Called(ctx, listingID, price, itemName, token, buyerEmail, buyerName, buyerUserID, successURL, cancelURL)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentAPI) ExecutePayment(ctx context.Context, paymentID, payerID, listingID, buyerUserID string) (client.ExecuteResult, error) {
	args := m.Called(ctx, paymentID, payerID, listingID, buyerUserID)
	return args.Get(0).(client.ExecuteResult), args.Error(1)
}

// fakeSleeper records requested durations and returns immediately.
type fakeSleeper struct {
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	return ctx.Err()
}

func newTestPaymentService(api *MockPaymentAPI, sleeper Sleeper) (PaymentService, SettlementLedger, *memory.ProfileStateRepository) {
	ledger := NewMemorySettlementLedger()
	stateRepo := memory.NewProfileStateRepository()
	svc := NewPaymentService(api, ledger, stateRepo, sleeper, metrics.NewManager("truswap_test"), &logger.NoOpLogger{}, PaymentServiceConfig{
		Origin:            "http://localhost:5173",
		ConfirmationDelay: 3 * time.Second,
	})
	return svc, ledger, stateRepo
}

func TestInitiate_RefusesSoldListing(t *testing.T) {
	api := new(MockPaymentAPI)
	api.On("FetchListingByID", mock.Anything, "42").Return(entity.Listing{ID: "42", IsSold: true}, nil)

	svc, _, _ := newTestPaymentService(api, &fakeSleeper{})
	_, err := svc.Initiate(context.Background(), InitiateInput{ListingID: "42", Token: "tok"})

	assert.ErrorIs(t, err, ErrListingSold)
	api.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInitiate_RequiresToken(t *testing.T) {
	api := new(MockPaymentAPI)
	svc, _, _ := newTestPaymentService(api, &fakeSleeper{})

	_, err := svc.Initiate(context.Background(), InitiateInput{ListingID: "42"})
	assert.ErrorIs(t, err, ErrPaymentInitiation)
}

func TestInitiate_BuildsRedirectURLsFromOrigin(t *testing.T) {
	api := new(MockPaymentAPI)
	api.On("FetchListingByID", mock.Anything, "42").Return(entity.Listing{ID: "42"}, nil)
	api.On("CreatePayment", mock.Anything, "42", 25.0, "Calc textbook", "tok",
		"b@uni.edu", "Bob", "auth0|b1",
		"http://localhost:5173/paypal-checkout", "http://localhost:5173/payment-cancel").
		Return("https://provider.example/approve/abc", nil)

	svc, _, _ := newTestPaymentService(api, &fakeSleeper{})
	approvalURL, err := svc.Initiate(context.Background(), InitiateInput{
		ListingID:  "42",
		Price:      25.0,
		ItemName:   "Calc textbook",
		Token:      "tok",
		BuyerEmail: "b@uni.edu",
		BuyerName:  "Bob",
		BuyerID:    "auth0|b1",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://provider.example/approve/abc", approvalURL)
}

func TestInitiate_EmptyApprovalURLIsAnError(t *testing.T) {
	api := new(MockPaymentAPI)
	api.On("FetchListingByID", mock.Anything, "42").Return(entity.Listing{ID: "42"}, nil)
	api.On("CreatePayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", nil)

	svc, _, _ := newTestPaymentService(api, &fakeSleeper{})
	_, err := svc.Initiate(context.Background(), InitiateInput{ListingID: "42", Token: "tok"})

	assert.ErrorIs(t, err, ErrPaymentInitiation)
}

func TestResolveCallback(t *testing.T) {
	svc, _, _ := newTestPaymentService(new(MockPaymentAPI), &fakeSleeper{})

	testCases := []struct {
		name      string
		query     url.Values
		wantShape entity.CallbackShape
		wantErr   error
	}{
		{
			name:      "both identifiers need execution",
			query:     url.Values{"paymentId": {"PAY-1"}, "PayerID": {"PAYER-9"}},
			wantShape: entity.CallbackNeedsExecution,
		},
		{
			name:      "payment id only was executed upstream",
			query:     url.Values{"paymentId": {"PAY-1"}},
			wantShape: entity.CallbackAlreadyExecuted,
		},
		{
			name:      "snake case payment id accepted",
			query:     url.Values{"payment_id": {"PAY-1"}, "PayerID": {"PAYER-9"}},
			wantShape: entity.CallbackNeedsExecution,
		},
		{
			name:    "no payment id",
			query:   url.Values{"PayerID": {"PAYER-9"}},
			wantErr: ErrMissingPaymentID,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cb, err := svc.ResolveCallback(tc.query)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantShape, cb.Shape)
			assert.Equal(t, "PAY-1", cb.PaymentID)
		})
	}
}

func TestCompleteFromCallback_SuccessSettlesAndMarksRefresh(t *testing.T) {
	api := new(MockPaymentAPI)
	api.On("ExecutePayment", mock.Anything, "PAY-1", "PAYER-9", "42", "auth0|b1").
		Return(client.ExecuteResult{Status: "success"}, nil).Once()

	svc, ledger, stateRepo := newTestPaymentService(api, &fakeSleeper{})
	cb := entity.PaymentCallback{
		Shape:       entity.CallbackNeedsExecution,
		PaymentID:   "PAY-1",
		PayerID:     "PAYER-9",
		ListingID:   "42",
		BuyerUserID: "auth0|b1",
	}

	result, err := svc.CompleteFromCallback(context.Background(), cb)

	require.NoError(t, err)
	assert.Equal(t, entity.StateSucceeded, result.State)
	assert.True(t, ledger.HasSettled("PAY-1"))

	flag, err := stateRepo.GetSession(context.Background(), "fromPayment")
	require.NoError(t, err)
	assert.Equal(t, "true", flag)
}

func TestCompleteFromCallback_DuplicateDeliveryExecutesOnce(t *testing.T) {
	api := new(MockPaymentAPI)
	api.On("ExecutePayment", mock.Anything, "PAY-1", "PAYER-9", "42", "").
		Return(client.ExecuteResult{Status: "success"}, nil).Once()

	svc, _, _ := newTestPaymentService(api, &fakeSleeper{})
	cb := entity.PaymentCallback{
		Shape:     entity.CallbackNeedsExecution,
		PaymentID: "PAY-1",
		PayerID:   "PAYER-9",
		ListingID: "42",
	}

	first, err := svc.CompleteFromCallback(context.Background(), cb)
	require.NoError(t, err)
	assert.False(t, first.AlreadySettled)

	second, err := svc.CompleteFromCallback(context.Background(), cb)
	require.NoError(t, err)
	assert.True(t, second.AlreadySettled)
	assert.Equal(t, entity.StateAlreadySettled, second.State)

	api.AssertNumberOfCalls(t, "ExecutePayment", 1)
}

func TestCompleteFromCallback_AlreadySettledErrorIsSuccess(t *testing.T) {
	alreadyDone := &client.APIError{
		Message: "PAYMENT_ALREADY_DONE",
		Status:  409,
	}
	api := new(MockPaymentAPI)
	api.On("ExecutePayment", mock.Anything, "PAY-1", "PAYER-9", "42", "").
		Return(client.ExecuteResult{}, alreadyDone).Once()

	svc, ledger, _ := newTestPaymentService(api, &fakeSleeper{})
	cb := entity.PaymentCallback{
		Shape:     entity.CallbackNeedsExecution,
		PaymentID: "PAY-1",
		PayerID:   "PAYER-9",
		ListingID: "42",
	}

	result, err := svc.CompleteFromCallback(context.Background(), cb)

	require.NoError(t, err)
	assert.True(t, result.AlreadySettled)
	assert.True(t, ledger.HasSettled("PAY-1"))
}

func TestCompleteFromCallback_FailureReleasesLatch(t *testing.T) {
	api := new(MockPaymentAPI)
	api.On("ExecutePayment", mock.Anything, "PAY-1", "PAYER-9", "42", "").
		Return(client.ExecuteResult{}, errors.New("backend exploded")).Once()
	api.On("ExecutePayment", mock.Anything, "PAY-1", "PAYER-9", "42", "").
		Return(client.ExecuteResult{Status: "success"}, nil).Once()

	svc, _, _ := newTestPaymentService(api, &fakeSleeper{})
	cb := entity.PaymentCallback{
		Shape:     entity.CallbackNeedsExecution,
		PaymentID: "PAY-1",
		PayerID:   "PAYER-9",
		ListingID: "42",
	}

	_, err := svc.CompleteFromCallback(context.Background(), cb)
	require.ErrorIs(t, err, ErrPaymentExecution)

	// The retry must reach the network; the latch was released.
	result, err := svc.CompleteFromCallback(context.Background(), cb)
	require.NoError(t, err)
	assert.Equal(t, entity.StateSucceeded, result.State)
	api.AssertNumberOfCalls(t, "ExecutePayment", 2)
}

func TestCompleteFromCallback_NonSuccessStatusReleasesLatch(t *testing.T) {
	api := new(MockPaymentAPI)
	api.On("ExecutePayment", mock.Anything, "PAY-1", "PAYER-9", "42", "").
		Return(client.ExecuteResult{Status: "failed", Message: "payer mismatch"}, nil).Once()

	svc, ledger, _ := newTestPaymentService(api, &fakeSleeper{})
	cb := entity.PaymentCallback{
		Shape:     entity.CallbackNeedsExecution,
		PaymentID: "PAY-1",
		PayerID:   "PAYER-9",
		ListingID: "42",
	}

	_, err := svc.CompleteFromCallback(context.Background(), cb)

	require.ErrorIs(t, err, ErrPaymentExecution)
	assert.Contains(t, err.Error(), "payer mismatch")
	assert.False(t, ledger.HasSettled("PAY-1"))
	// A deliberate retry is allowed through.
	assert.True(t, ledger.Begin("PAY-1"))
}

func TestCompleteFromCallback_AlreadyExecutedShapeSkipsExecution(t *testing.T) {
	api := new(MockPaymentAPI)
	sleeper := &fakeSleeper{}

	svc, _, stateRepo := newTestPaymentService(api, sleeper)
	cb := entity.PaymentCallback{
		Shape:     entity.CallbackAlreadyExecuted,
		PaymentID: "PAY-1",
	}

	result, err := svc.CompleteFromCallback(context.Background(), cb)

	require.NoError(t, err)
	assert.True(t, result.AlreadySettled)
	assert.Equal(t, []time.Duration{3 * time.Second}, sleeper.slept)
	api.AssertNotCalled(t, "ExecutePayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	flag, err := stateRepo.GetSession(context.Background(), "fromPayment")
	require.NoError(t, err)
	assert.Equal(t, "true", flag)
}

func TestCompleteFromCallback_CountsSettlementsAndFailures(t *testing.T) {
	api := new(MockPaymentAPI)
	api.On("ExecutePayment", mock.Anything, "PAY-1", "PAYER-9", "42", "").
		Return(client.ExecuteResult{}, errors.New("gateway timeout")).Once()
	api.On("ExecutePayment", mock.Anything, "PAY-1", "PAYER-9", "42", "").
		Return(client.ExecuteResult{Status: "success"}, nil).Once()

	mm := metrics.NewManager("truswap_test")
	svc := NewPaymentService(api, NewMemorySettlementLedger(), memory.NewProfileStateRepository(), &fakeSleeper{}, mm, &logger.NoOpLogger{}, PaymentServiceConfig{
		Origin: "http://localhost:5173",
	})
	cb := entity.PaymentCallback{
		Shape:     entity.CallbackNeedsExecution,
		PaymentID: "PAY-1",
		PayerID:   "PAYER-9",
		ListingID: "42",
	}

	_, err := svc.CompleteFromCallback(context.Background(), cb)
	require.ErrorIs(t, err, ErrPaymentExecution)
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.PaymentFailuresTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(mm.PaymentsSettledTotal))

	_, err = svc.CompleteFromCallback(context.Background(), cb)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.PaymentsSettledTotal))

	// Settled payments resolve from the ledger without network calls.
	_, err = svc.CompleteFromCallback(context.Background(), cb)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.PaymentDuplicatesTotal))
	api.AssertNumberOfCalls(t, "ExecutePayment", 2)
}
