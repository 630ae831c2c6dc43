// Package handlers - Wallet HTTP handlers.
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
	"github.com/Haleralex/wallethub/internal/application/usecases/wallet"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// ============================================
// Use Case Interfaces
// ============================================

// CreateWalletUseCase - интерфейс для создания кошелька.
type CreateWalletUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, in wallet.CreateWalletInput) (*entities.Wallet, error)
}

// GetWalletUseCase - интерфейс для получения кошелька.
type GetWalletUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, walletID uuid.UUID) (*wallet.WalletWithBalances, error)
}

// ListWalletsUseCase - интерфейс для получения списка кошельков.
type ListWalletsUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, offset, limit int) ([]wallet.WalletWithBalances, int, error)
}

// DeleteWalletUseCase - интерфейс для удаления кошелька.
type DeleteWalletUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, walletID uuid.UUID) error
}

// ============================================
// Wallet Handler
// ============================================

// WalletHandler обрабатывает HTTP запросы для кошельков.
type WalletHandler struct {
	createWallet CreateWalletUseCase
	getWallet    GetWalletUseCase
	listWallets  ListWalletsUseCase
	deleteWallet DeleteWalletUseCase
}

// NewWalletHandler создаёт новый WalletHandler.
func NewWalletHandler(
	createWallet CreateWalletUseCase,
	getWallet GetWalletUseCase,
	listWallets ListWalletsUseCase,
	deleteWallet DeleteWalletUseCase,
) *WalletHandler {
	return &WalletHandler{
		createWallet: createWallet,
		getWallet:    getWallet,
		listWallets:  listWallets,
		deleteWallet: deleteWallet,
	}
}

// ============================================
// Request DTOs
// ============================================

// CreateWalletRequest - запрос на создание кошелька.
//
// @Description Create wallet request body
type CreateWalletRequest struct {
	UserID       string                 `json:"user_id" binding:"required,uuid"`
	WalletType   string                 `json:"wallet_type" binding:"required,wallet_type"`
	MainCurrency string                 `json:"main_currency" binding:"required,currency_code"`
	MetaData     map[string]interface{} `json:"meta_data,omitempty"`
}

// WalletIDParam - параметр ID кошелька из URL.
type WalletIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreateWallet создаёт новый кошелёк.
//
// @Summary Create a new wallet
// @Description Create a new wallet of the given type and main currency
// @Tags Wallets
// @Accept json
// @Produce json
// @Param request body CreateWalletRequest true "Wallet data"
// @Success 201 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse "User issuers cannot create wallets directly"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets [post]
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req CreateWalletRequest
	if !BindJSON(c, &req) {
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "user_id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	currency, err := valueobjects.NewCurrency(req.MainCurrency)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "main_currency", Message: err.Error(), Code: "currency_code"},
		})
		return
	}

	in := wallet.CreateWalletInput{
		UserID:       userID,
		WalletType:   entities.WalletType(req.WalletType),
		MainCurrency: currency,
		MetaData:     req.MetaData,
	}

	w, err := h.createWallet.Execute(c.Request.Context(), middleware.Authorization(c), in)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, dtos.NewWalletDTO(w, nil))
}

// GetWallet возвращает кошелёк по ID вместе с его актуальными балансами.
//
// @Summary Get wallet by ID
// @Description Get wallet details and derived balances by UUID
// @Tags Wallets
// @Accept json
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/{id} [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}

	walletID, err := uuid.Parse(params.ID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	result, err := h.getWallet.Execute(c.Request.Context(), middleware.Authorization(c), walletID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, dtos.NewWalletDTO(result.Wallet, result.Balances))
}

// ListWallets возвращает список кошельков авторизованного издателя.
//
// @Summary List wallets
// @Description Get paginated list of wallets visible to the caller
// @Tags Wallets
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Success 200 {object} common.APIResponse{data=dtos.WalletListDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets [get]
func (h *WalletHandler) ListWallets(c *gin.Context) {
	pagination := ParsePagination(c)

	items, total, err := h.listWallets.Execute(c.Request.Context(), middleware.Authorization(c), pagination.Offset(), pagination.PerPage)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	list := dtos.WalletListDTO{Items: make([]dtos.WalletDTO, len(items)), TotalCount: total}
	for i, item := range items {
		list.Items[i] = dtos.NewWalletDTO(item.Wallet, item.Balances)
	}

	meta := BuildMeta(pagination, total)
	common.SuccessWithMeta(c, http.StatusOK, list, meta)
}

// DeleteWallet помечает кошелёк удалённым, если его spendable баланс нулевой
// в каждой валюте.
//
// @Summary Delete a wallet
// @Description Soft-delete a wallet once every spendable balance is zero
// @Tags Wallets
// @Accept json
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Success 204
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse "Wallet still holds a non-zero balance"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/{id} [delete]
func (h *WalletHandler) DeleteWallet(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}

	walletID, err := uuid.Parse(params.ID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	if err := h.deleteWallet.Execute(c.Request.Context(), middleware.Authorization(c), walletID); err != nil {
		common.HandleDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes регистрирует маршруты для WalletHandler.
//
// Routes:
// - POST   /wallets      - Create wallet
// - GET    /wallets      - List wallets
// - GET    /wallets/:id  - Get wallet by ID
// - DELETE /wallets/:id  - Delete wallet
func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup) {
	wallets := router.Group("/wallets")
	{
		wallets.POST("", h.CreateWallet)
		wallets.GET("", h.ListWallets)
		wallets.GET("/:id", h.GetWallet)
		wallets.DELETE("/:id", h.DeleteWallet)
	}
}
