package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escrow-chain.backend/internal/domain/entities"
	domainerrors "escrow-chain.backend/internal/domain/errors"
)

type escrowServiceStub struct {
	depositFn func(ctx context.Context, contractID uuid.UUID, amount int64, from string) (*entities.Contract, error)
	releaseFn func(ctx context.Context, contractID uuid.UUID, amount int64, to, reason string) (*entities.Contract, error)
	refundFn  func(ctx context.Context, contractID uuid.UUID, amount int64, to, reason string) (*entities.Contract, error)
	txFn      func(ctx context.Context, contractID uuid.UUID) ([]entities.EscrowTransaction, error)
}

func (s *escrowServiceStub) DepositFunds(ctx context.Context, contractID uuid.UUID, amount int64, from string) (*entities.Contract, error) {
	if s.depositFn != nil {
		return s.depositFn(ctx, contractID, amount, from)
	}
	return nil, domainerrors.NotFound("unexpected call")
}

func (s *escrowServiceStub) ReleaseFunds(ctx context.Context, contractID uuid.UUID, amount int64, to, reason string) (*entities.Contract, error) {
	if s.releaseFn != nil {
		return s.releaseFn(ctx, contractID, amount, to, reason)
	}
	return nil, domainerrors.NotFound("unexpected call")
}

func (s *escrowServiceStub) RefundFunds(ctx context.Context, contractID uuid.UUID, amount int64, to, reason string) (*entities.Contract, error) {
	if s.refundFn != nil {
		return s.refundFn(ctx, contractID, amount, to, reason)
	}
	return nil, domainerrors.NotFound("unexpected call")
}

func (s *escrowServiceStub) GetTransactions(ctx context.Context, contractID uuid.UUID) ([]entities.EscrowTransaction, error) {
	if s.txFn != nil {
		return s.txFn(ctx, contractID)
	}
	return nil, nil
}

func TestEscrowHandler_DepositFunds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	id := uuid.New()
	svc := &escrowServiceStub{
		depositFn: func(_ context.Context, contractID uuid.UUID, amount int64, from string) (*entities.Contract, error) {
			require.Equal(t, id, contractID)
			require.Equal(t, int64(500), amount)
			require.Equal(t, "client-1", from)
			c := stubContract(id)
			c.Funds.LockedAmount = 500
			return c, nil
		},
	}
	h := NewEscrowHandler(svc)

	r := gin.New()
	r.POST("/contracts/:id/deposits", authAs("client-1"), h.DepositFunds)

	req := httptest.NewRequest(http.MethodPost, "/contracts/"+id.String()+"/deposits",
		strings.NewReader(`{"amount":500}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"lockedAmount":500`)
}

func TestEscrowHandler_DepositFunds_RejectsNonPositiveAmount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewEscrowHandler(&escrowServiceStub{})

	r := gin.New()
	r.POST("/contracts/:id/deposits", authAs("client-1"), h.DepositFunds)

	for _, body := range []string{`{"amount":0}`, `{"amount":-5}`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/contracts/"+uuid.NewString()+"/deposits", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code, "body=%s", body)
	}
}

func TestEscrowHandler_ReleaseFunds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	id := uuid.New()
	svc := &escrowServiceStub{
		releaseFn: func(_ context.Context, contractID uuid.UUID, amount int64, to, reason string) (*entities.Contract, error) {
			require.Equal(t, int64(600), amount)
			require.Equal(t, "provider-1", to)
			require.Equal(t, "milestone complete", reason)
			c := stubContract(id)
			c.Funds.ReleasedAmount = 600
			return c, nil
		},
	}
	h := NewEscrowHandler(svc)

	r := gin.New()
	r.POST("/contracts/:id/releases", h.ReleaseFunds)

	req := httptest.NewRequest(http.MethodPost, "/contracts/"+id.String()+"/releases",
		strings.NewReader(`{"amount":600,"to":"provider-1","reason":"milestone complete"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestEscrowHandler_ReleaseFunds_InsufficientFunds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &escrowServiceStub{
		releaseFn: func(context.Context, uuid.UUID, int64, string, string) (*entities.Contract, error) {
			return nil, domainerrors.InsufficientFunds("release exceeds locked funds")
		},
	}
	h := NewEscrowHandler(svc)

	r := gin.New()
	r.POST("/contracts/:id/releases", h.ReleaseFunds)

	req := httptest.NewRequest(http.MethodPost, "/contracts/"+uuid.NewString()+"/releases",
		strings.NewReader(`{"amount":600,"to":"provider-1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestEscrowHandler_RefundFunds_RequiresRecipient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewEscrowHandler(&escrowServiceStub{})

	r := gin.New()
	r.POST("/contracts/:id/refunds", h.RefundFunds)

	req := httptest.NewRequest(http.MethodPost, "/contracts/"+uuid.NewString()+"/refunds",
		strings.NewReader(`{"amount":100}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEscrowHandler_GetTransactions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	id := uuid.New()
	svc := &escrowServiceStub{
		txFn: func(_ context.Context, contractID uuid.UUID) ([]entities.EscrowTransaction, error) {
			return []entities.EscrowTransaction{
				{ID: uuid.New(), Type: entities.TransactionTypeDeposit, Amount: 500, Status: entities.TransactionStatusConfirmed},
			}, nil
		},
	}
	h := NewEscrowHandler(svc)

	r := gin.New()
	r.GET("/contracts/:id/transactions", h.GetTransactions)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/contracts/"+id.String()+"/transactions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deposit"`)
}
