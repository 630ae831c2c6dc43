// Package handlers - Transaction (ledger) HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/adapters/http/common"
	"github.com/Haleralex/wallethub/internal/adapters/http/middleware"
	"github.com/Haleralex/wallethub/internal/application/dtos"
	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/application/usecases/ledger"
	"github.com/Haleralex/wallethub/internal/domain/entities"
)

// ============================================
// Use Case Interfaces
// ============================================

// GetTransactionUseCase - интерфейс для получения строки леджера вместе с последней заметкой.
type GetTransactionUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, transactionID uuid.UUID) (*ledger.TransactionWithNote, error)
}

// ListTransactionsUseCase - интерфейс для получения списка строк леджера кошелька.
type ListTransactionsUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, walletID uuid.UUID, offset, limit int) ([]*entities.Transaction, int, error)
}

// AddTransactionNoteUseCase - интерфейс для добавления заметки к строке леджера.
type AddTransactionNoteUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, transactionID uuid.UUID, note string) (*entities.TransactionNote, error)
}

// ============================================
// Transaction Handler
// ============================================

// TransactionHandler обрабатывает HTTP запросы для строк леджера.
type TransactionHandler struct {
	getTransaction   GetTransactionUseCase
	listTransactions ListTransactionsUseCase
	addNote          AddTransactionNoteUseCase
}

// NewTransactionHandler создаёт новый TransactionHandler.
func NewTransactionHandler(
	getTransaction GetTransactionUseCase,
	listTransactions ListTransactionsUseCase,
	addNote AddTransactionNoteUseCase,
) *TransactionHandler {
	return &TransactionHandler{
		getTransaction:   getTransaction,
		listTransactions: listTransactions,
		addNote:          addNote,
	}
}

// ============================================
// Request DTOs
// ============================================

// TransactionIDParam - параметр ID строки леджера из URL.
type TransactionIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// AddNoteRequest - запрос на добавление заметки к строке леджера.
//
// @Description Add transaction note request body
type AddNoteRequest struct {
	Note string `json:"note" binding:"required,min=1,max=2000"`
}

// ============================================
// HTTP Handlers
// ============================================

// GetTransaction возвращает строку леджера по ID вместе с последней заметкой.
//
// @Summary Get a ledger transaction by ID
// @Tags Transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.TransactionWithNoteDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	var params TransactionIDParam
	if !BindURI(c, &params) {
		return
	}

	transactionID, err := uuid.Parse(params.ID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	result, err := h.getTransaction.Execute(c.Request.Context(), middleware.Authorization(c), transactionID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, dtos.NewTransactionWithNoteDTO(result))
}

// ListWalletTransactions возвращает леджер конкретного кошелька.
//
// @Summary List ledger rows for a wallet
// @Tags Transactions
// @Accept json
// @Produce json
// @Param wallet_id path string true "Wallet ID" format(uuid)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Success 200 {object} common.APIResponse{data=dtos.TransactionListDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/{wallet_id}/transactions [get]
func (h *TransactionHandler) ListWalletTransactions(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("wallet_id"))
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "wallet_id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	pagination := ParsePagination(c)

	items, total, err := h.listTransactions.Execute(c.Request.Context(), middleware.Authorization(c), walletID, pagination.Offset(), pagination.PerPage)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	list := dtos.TransactionListDTO{Items: make([]dtos.TransactionDTO, len(items)), TotalCount: total}
	for i, tx := range items {
		list.Items[i] = dtos.NewTransactionDTO(tx)
	}

	meta := BuildMeta(pagination, total)
	common.SuccessWithMeta(c, http.StatusOK, list, meta)
}

// AddNote добавляет заметку к строке леджера.
//
// @Summary Add a note to a ledger transaction
// @Tags Transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID" format(uuid)
// @Param request body AddNoteRequest true "Note body"
// @Success 201 {object} common.APIResponse{data=dtos.NoteDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/transactions/{id}/notes [post]
func (h *TransactionHandler) AddNote(c *gin.Context) {
	var params TransactionIDParam
	if !BindURI(c, &params) {
		return
	}

	transactionID, err := uuid.Parse(params.ID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	var req AddNoteRequest
	if !BindJSON(c, &req) {
		return
	}

	note, err := h.addNote.Execute(c.Request.Context(), middleware.Authorization(c), transactionID, req.Note)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, dtos.NewNoteDTO(note))
}

// RegisterRoutes регистрирует маршруты для TransactionHandler.
//
// Routes:
// - GET  /transactions/:id            - Get transaction by ID
// - POST /transactions/:id/notes      - Add a note to a transaction
// - GET  /wallets/:wallet_id/transactions - List a wallet's ledger rows
func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	transactions := router.Group("/transactions")
	{
		transactions.GET("/:id", h.GetTransaction)
		transactions.POST("/:id/notes", h.AddNote)
	}
	router.GET("/wallets/:wallet_id/transactions", h.ListWalletTransactions)
}
