// Package handlers - WalletHold HTTP handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/adapters/http/common"
	"github.com/Haleralex/wallethub/internal/adapters/http/middleware"
	"github.com/Haleralex/wallethub/internal/application/dtos"
	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/application/usecases/hold"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// ============================================
// Use Case Interfaces
// ============================================

// CreateHoldUseCase - интерфейс для создания резервирования средств.
type CreateHoldUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, in hold.CreateHoldInput) (*entities.WalletHold, error)
}

// ListHoldsUseCase - интерфейс для получения списка резервирований.
type ListHoldsUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, walletID *uuid.UUID, offset, limit int) ([]*entities.WalletHold, int, error)
}

// UpdateHoldUseCase - интерфейс для обновления резервирования.
type UpdateHoldUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, in hold.UpdateHoldInput) (*entities.WalletHold, error)
}

// ============================================
// Hold Handler
// ============================================

// HoldHandler обрабатывает HTTP запросы для резервирований кошельков.
type HoldHandler struct {
	createHold CreateHoldUseCase
	listHolds  ListHoldsUseCase
	updateHold UpdateHoldUseCase
}

// NewHoldHandler создаёт новый HoldHandler.
func NewHoldHandler(createHold CreateHoldUseCase, listHolds ListHoldsUseCase, updateHold UpdateHoldUseCase) *HoldHandler {
	return &HoldHandler{createHold: createHold, listHolds: listHolds, updateHold: updateHold}
}

// ============================================
// Request DTOs
// ============================================

// CreateHoldRequest - запрос на создание резервирования.
//
// @Description Create hold request body
type CreateHoldRequest struct {
	WalletID    string                 `json:"wallet_id" binding:"required,uuid"`
	Amount      string                 `json:"amount" binding:"required,money_amount"`
	Currency    string                 `json:"currency" binding:"required,currency_code"`
	ExpiresAt   time.Time              `json:"expires_at" binding:"required"`
	Description string                 `json:"description" binding:"required,min=1,max=500"`
	MetaData    map[string]interface{} `json:"meta_data,omitempty"`
}

// UpdateHoldRequest - запрос на обновление резервирования.
//
// @Description Update hold request body
type UpdateHoldRequest struct {
	ExpiresAt   *time.Time             `json:"expires_at,omitempty"`
	Status      *string                `json:"status,omitempty" binding:"omitempty,hold_status"`
	Description *string                `json:"description,omitempty"`
	MetaData    map[string]interface{} `json:"meta_data,omitempty"`
}

// HoldIDParam - параметр ID резервирования из URL.
type HoldIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreateHold создаёт новое резервирование средств на кошельке.
//
// @Summary Reserve funds on a wallet
// @Tags Holds
// @Accept json
// @Produce json
// @Param request body CreateHoldRequest true "Hold data"
// @Success 201 {object} common.APIResponse{data=dtos.HoldDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse "User issuers cannot reserve their own funds"
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/holds [post]
func (h *HoldHandler) CreateHold(c *gin.Context) {
	var req CreateHoldRequest
	if !BindJSON(c, &req) {
		return
	}

	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "wallet_id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	currency, err := valueobjects.NewCurrency(req.Currency)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "currency", Message: err.Error(), Code: "currency_code"},
		})
		return
	}

	amount, err := valueobjects.NewDecimal(req.Amount, currency)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "amount", Message: err.Error(), Code: "money_amount"},
		})
		return
	}

	in := hold.CreateHoldInput{
		WalletID:    walletID,
		Amount:      amount,
		ExpiresAt:   req.ExpiresAt,
		Description: req.Description,
		MetaData:    req.MetaData,
	}

	created, err := h.createHold.Execute(c.Request.Context(), middleware.Authorization(c), in)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, dtos.NewHoldDTO(created))
}

// ListHolds возвращает список резервирований, опционально по конкретному кошельку.
//
// @Summary List wallet holds
// @Tags Holds
// @Accept json
// @Produce json
// @Param wallet_id query string false "Filter by wallet ID" format(uuid)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Success 200 {object} common.APIResponse{data=dtos.HoldListDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/holds [get]
func (h *HoldHandler) ListHolds(c *gin.Context) {
	var walletID *uuid.UUID
	if raw := c.Query("wallet_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			common.ValidationErrorResponse(c, []common.FieldError{
				{Field: "wallet_id", Message: "Invalid UUID format", Code: "uuid"},
			})
			return
		}
		walletID = &parsed
	}

	pagination := ParsePagination(c)

	items, total, err := h.listHolds.Execute(c.Request.Context(), middleware.Authorization(c), walletID, pagination.Offset(), pagination.PerPage)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	list := dtos.HoldListDTO{Items: make([]dtos.HoldDTO, len(items)), TotalCount: total}
	for i, hd := range items {
		list.Items[i] = dtos.NewHoldDTO(hd)
	}

	meta := BuildMeta(pagination, total)
	common.SuccessWithMeta(c, http.StatusOK, list, meta)
}

// UpdateHold патчит изменяемые поля резервирования: expires_at, status,
// description, meta_data.
//
// @Summary Update a wallet hold
// @Tags Holds
// @Accept json
// @Produce json
// @Param id path string true "Hold ID" format(uuid)
// @Param request body UpdateHoldRequest true "Patch data"
// @Success 200 {object} common.APIResponse{data=dtos.HoldDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/holds/{id} [patch]
func (h *HoldHandler) UpdateHold(c *gin.Context) {
	var params HoldIDParam
	if !BindURI(c, &params) {
		return
	}

	id, err := uuid.Parse(params.ID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	var req UpdateHoldRequest
	if !BindJSON(c, &req) {
		return
	}

	var status *entities.HoldStatus
	if req.Status != nil {
		s := entities.HoldStatus(*req.Status)
		status = &s
	}

	in := hold.UpdateHoldInput{
		HoldID:      id,
		ExpiresAt:   req.ExpiresAt,
		Status:      status,
		Description: req.Description,
		MetaData:    req.MetaData,
	}

	updated, err := h.updateHold.Execute(c.Request.Context(), middleware.Authorization(c), in)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, dtos.NewHoldDTO(updated))
}

// RegisterRoutes регистрирует маршруты для HoldHandler.
//
// Routes:
// - POST  /holds     - Create hold
// - GET   /holds      - List holds
// - PATCH /holds/:id - Update hold
func (h *HoldHandler) RegisterRoutes(router *gin.RouterGroup) {
	holds := router.Group("/holds")
	{
		holds.POST("", h.CreateHold)
		holds.GET("", h.ListHolds)
		holds.PATCH("/:id", h.UpdateHold)
	}
}
