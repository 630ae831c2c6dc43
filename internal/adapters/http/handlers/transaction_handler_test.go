package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/application/usecases/ledger"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	domerrors "github.com/Haleralex/wallethub/internal/domain/errors"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// ============================================
// Mock Use Cases
// ============================================

type mockGetTransactionUseCase struct {
	ExecuteFn func(ctx context.Context, auth ports.Authorization, transactionID uuid.UUID) (*ledger.TransactionWithNote, error)
}

func (m *mockGetTransactionUseCase) Execute(ctx context.Context, auth ports.Authorization, transactionID uuid.UUID) (*ledger.TransactionWithNote, error) {
	return m.ExecuteFn(ctx, auth, transactionID)
}

type mockListTransactionsUseCase struct {
	ExecuteFn func(ctx context.Context, auth ports.Authorization, walletID uuid.UUID, offset, limit int) ([]*entities.Transaction, int, error)
}

func (m *mockListTransactionsUseCase) Execute(ctx context.Context, auth ports.Authorization, walletID uuid.UUID, offset, limit int) ([]*entities.Transaction, int, error) {
	return m.ExecuteFn(ctx, auth, walletID, offset, limit)
}

type mockAddTransactionNoteUseCase struct {
	ExecuteFn func(ctx context.Context, auth ports.Authorization, transactionID uuid.UUID, note string) (*entities.TransactionNote, error)
}

func (m *mockAddTransactionNoteUseCase) Execute(ctx context.Context, auth ports.Authorization, transactionID uuid.UUID, note string) (*entities.TransactionNote, error) {
	return m.ExecuteFn(ctx, auth, transactionID, note)
}

// ============================================
// Helper Functions
// ============================================

func setupTransactionTestRouter(handler *TransactionHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetupValidator()
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func newTestTransaction(walletID uuid.UUID) *entities.Transaction {
	amount := valueobjects.NewDecimalFromInt(100, valueobjects.MustNewCurrency("USD"))
	tx, _ := entities.NewTransaction("acme", uuid.Nil, uuid.New(), walletID, amount, "test", valueobjects.NewDecimalFromInt(0, amount.Currency()), nil)
	return tx
}

// ============================================
// Test Cases
// ============================================

func TestTransactionHandler_GetTransaction(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		tx := newTestTransaction(uuid.New())

		mockUseCase := &mockGetTransactionUseCase{
			ExecuteFn: func(ctx context.Context, auth ports.Authorization, transactionID uuid.UUID) (*ledger.TransactionWithNote, error) {
				return &ledger.TransactionWithNote{Transaction: tx}, nil
			},
		}

		handler := NewTransactionHandler(mockUseCase, nil, nil)
		router := setupTransactionTestRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+tx.UID.String(), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.True(t, response["success"].(bool))
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		handler := NewTransactionHandler(&mockGetTransactionUseCase{}, nil, nil)
		router := setupTransactionTestRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/not-a-uuid", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("TransactionNotFound", func(t *testing.T) {
		mockUseCase := &mockGetTransactionUseCase{
			ExecuteFn: func(ctx context.Context, auth ports.Authorization, transactionID uuid.UUID) (*ledger.TransactionWithNote, error) {
				return nil, domerrors.ErrTransactionNotFound
			},
		}

		handler := NewTransactionHandler(mockUseCase, nil, nil)
		router := setupTransactionTestRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+uuid.New().String(), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTransactionHandler_ListWalletTransactions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		walletID := uuid.New()

		mockUseCase := &mockListTransactionsUseCase{
			ExecuteFn: func(ctx context.Context, auth ports.Authorization, wid uuid.UUID, offset, limit int) ([]*entities.Transaction, int, error) {
				assert.Equal(t, walletID, wid)
				return []*entities.Transaction{newTestTransaction(walletID)}, 1, nil
			},
		}

		handler := NewTransactionHandler(nil, mockUseCase, nil)
		router := setupTransactionTestRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+walletID.String()+"/transactions", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotNil(t, response["meta"])
	})

	t.Run("InvalidWalletID", func(t *testing.T) {
		handler := NewTransactionHandler(nil, &mockListTransactionsUseCase{}, nil)
		router := setupTransactionTestRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/not-a-uuid/transactions", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTransactionHandler_AddNote(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		txID := uuid.New()

		mockUseCase := &mockAddTransactionNoteUseCase{
			ExecuteFn: func(ctx context.Context, auth ports.Authorization, transactionID uuid.UUID, note string) (*entities.TransactionNote, error) {
				return entities.NewTransactionNote("acme", uuid.Nil, transactionID, note, nil), nil
			},
		}

		handler := NewTransactionHandler(nil, nil, mockUseCase)
		router := setupTransactionTestRouter(handler)

		body, _ := json.Marshal(AddNoteRequest{Note: "flagged for review"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+txID.String()+"/notes", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("MissingNote", func(t *testing.T) {
		handler := NewTransactionHandler(nil, nil, &mockAddTransactionNoteUseCase{})
		router := setupTransactionTestRouter(handler)

		body, _ := json.Marshal(map[string]interface{}{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+uuid.New().String()+"/notes", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTransactionHandler_RegisterRoutes(t *testing.T) {
	handler := NewTransactionHandler(nil, nil, nil)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))

	routes := router.Routes()
	expectedRoutes := []string{
		"GET /api/v1/transactions/:id",
		"POST /api/v1/transactions/:id/notes",
		"GET /api/v1/wallets/:wallet_id/transactions",
	}

	assert.Len(t, routes, len(expectedRoutes))

	for _, expected := range expectedRoutes {
		found := false
		for _, route := range routes {
			if route.Method+" "+route.Path == expected {
				found = true
				break
			}
		}
		assert.True(t, found, "Route %s not found", expected)
	}
}
