// Package handlers - Proposal HTTP handlers.
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
	"github.com/Haleralex/wallethub/internal/application/usecases/proposal"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

// ============================================
// Use Case Interfaces
// ============================================

// CreateProposalUseCase - интерфейс для создания предложения перевода.
type CreateProposalUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, in proposal.CreateProposalInput) (*entities.Proposal, error)
}

// GetProposalUseCase - интерфейс для получения предложения по ID.
type GetProposalUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, id uuid.UUID) (*entities.Proposal, error)
}

// ListProposalsUseCase - интерфейс для получения списка предложений.
type ListProposalsUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, offset, limit int) ([]*entities.Proposal, int, error)
}

// UpdateProposalUseCase - интерфейс для обновления черновика предложения.
type UpdateProposalUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, in proposal.UpdateProposalInput) (*entities.Proposal, error)
}

// StartProposalUseCase - интерфейс для запуска предложения в коммит-фазу.
type StartProposalUseCase interface {
	Execute(ctx context.Context, auth ports.Authorization, proposalID uuid.UUID) (*entities.Proposal, error)
}

// ============================================
// Proposal Handler
// ============================================

// ProposalHandler обрабатывает HTTP запросы для предложений переводов.
type ProposalHandler struct {
	createProposal CreateProposalUseCase
	getProposal    GetProposalUseCase
	listProposals  ListProposalsUseCase
	updateProposal UpdateProposalUseCase
	startProposal  StartProposalUseCase
}

// NewProposalHandler создаёт новый ProposalHandler.
func NewProposalHandler(
	createProposal CreateProposalUseCase,
	getProposal GetProposalUseCase,
	listProposals ListProposalsUseCase,
	updateProposal UpdateProposalUseCase,
	startProposal StartProposalUseCase,
) *ProposalHandler {
	return &ProposalHandler{
		createProposal: createProposal,
		getProposal:    getProposal,
		listProposals:  listProposals,
		updateProposal: updateProposal,
		startProposal:  startProposal,
	}
}

// ============================================
// Request DTOs
// ============================================

// ParticipantRequest - один участник предложения.
type ParticipantRequest struct {
	WalletID string `json:"wallet_id" binding:"required,uuid"`
	Amount   string `json:"amount" binding:"required,signed_amount"`
}

// CreateProposalRequest - запрос на создание предложения.
//
// @Description Create proposal request body
type CreateProposalRequest struct {
	Amount        string                 `json:"amount" binding:"required,money_amount"`
	Description   string                 `json:"description" binding:"required,min=1,max=500"`
	Note          string                 `json:"note,omitempty"`
	Currency      string                 `json:"currency" binding:"required,currency_code"`
	InitialStatus string                 `json:"initial_status" binding:"required,oneof=draft init"`
	Participants  []ParticipantRequest   `json:"participants" binding:"required,min=1,dive"`
	MetaData      map[string]interface{} `json:"meta_data,omitempty"`
}

// UpdateProposalRequest - запрос на обновление черновика предложения.
//
// @Description Update proposal request body
type UpdateProposalRequest struct {
	TaskStatus  *string                `json:"task_status,omitempty" binding:"omitempty,task_status_input"`
	Description *string                `json:"description,omitempty"`
	Note        *string                `json:"note,omitempty"`
	MetaData    map[string]interface{} `json:"meta_data,omitempty"`
}

// ProposalIDParam - параметр ID предложения из URL.
type ProposalIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreateProposal создаёт новое предложение перевода в статусе draft или init.
//
// @Summary Create a transfer proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param request body CreateProposalRequest true "Proposal data"
// @Success 201 {object} common.APIResponse{data=dtos.ProposalDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse "User issuers cannot create proposals"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/proposals [post]
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	var req CreateProposalRequest
	if !BindJSON(c, &req) {
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

	participants := make([]entities.Participant, len(req.Participants))
	for i, p := range req.Participants {
		walletID, err := uuid.Parse(p.WalletID)
		if err != nil {
			common.ValidationErrorResponse(c, []common.FieldError{
				{Field: "participants", Message: "invalid wallet_id", Code: "uuid"},
			})
			return
		}
		participantAmount, err := valueobjects.NewDecimal(p.Amount, currency)
		if err != nil {
			common.ValidationErrorResponse(c, []common.FieldError{
				{Field: "participants", Message: err.Error(), Code: "signed_amount"},
			})
			return
		}
		participants[i] = entities.Participant{WalletID: walletID, Amount: participantAmount}
	}

	in := proposal.CreateProposalInput{
		Amount:        amount,
		Description:   req.Description,
		Note:          req.Note,
		InitialStatus: entities.TaskStatus(req.InitialStatus),
		Participants:  participants,
		MetaData:      req.MetaData,
	}

	p, err := h.createProposal.Execute(c.Request.Context(), middleware.Authorization(c), in)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, dtos.NewProposalDTO(p))
}

// GetProposal возвращает предложение по ID.
//
// @Summary Get proposal by ID
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.ProposalDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/proposals/{id} [get]
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	var params ProposalIDParam
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

	p, err := h.getProposal.Execute(c.Request.Context(), middleware.Authorization(c), id)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, dtos.NewProposalDTO(p))
}

// ListProposals возвращает список предложений.
//
// @Summary List proposals
// @Tags Proposals
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Success 200 {object} common.APIResponse{data=dtos.ProposalListDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/proposals [get]
func (h *ProposalHandler) ListProposals(c *gin.Context) {
	pagination := ParsePagination(c)

	items, total, err := h.listProposals.Execute(c.Request.Context(), middleware.Authorization(c), pagination.Offset(), pagination.PerPage)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	list := dtos.ProposalListDTO{Items: make([]dtos.ProposalDTO, len(items)), TotalCount: total}
	for i, p := range items {
		list.Items[i] = dtos.NewProposalDTO(p)
	}

	meta := BuildMeta(pagination, total)
	common.SuccessWithMeta(c, http.StatusOK, list, meta)
}

// UpdateProposal патчит черновик предложения — единственный разрешённый
// переход task_status это draft -> init.
//
// @Summary Update a draft proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID" format(uuid)
// @Param request body UpdateProposalRequest true "Patch data"
// @Success 200 {object} common.APIResponse{data=dtos.ProposalDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse "Proposal is no longer a draft"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/proposals/{id} [patch]
func (h *ProposalHandler) UpdateProposal(c *gin.Context) {
	var params ProposalIDParam
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

	var req UpdateProposalRequest
	if !BindJSON(c, &req) {
		return
	}

	var taskStatus *entities.TaskStatus
	if req.TaskStatus != nil {
		ts := entities.TaskStatus(*req.TaskStatus)
		taskStatus = &ts
	}

	in := proposal.UpdateProposalInput{
		ProposalID:  id,
		TaskStatus:  taskStatus,
		Description: req.Description,
		Note:        req.Note,
		MetaData:    req.MetaData,
	}

	p, err := h.updateProposal.Execute(c.Request.Context(), middleware.Authorization(c), in)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, dtos.NewProposalDTO(p))
}

// StartProposal переводит предложение в обработку и, при успехе,
// коммитит его участников атомарно в леджер.
// A proposal rejected by the validation pipeline is returned with 200 and
// task_status "error".
//
// @Summary Start (commit) a proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.ProposalDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse "Proposal is not in init status (already started or claimed)"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/proposals/{id}/start [post]
func (h *ProposalHandler) StartProposal(c *gin.Context) {
	var params ProposalIDParam
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

	p, err := h.startProposal.Execute(c.Request.Context(), middleware.Authorization(c), id)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, dtos.NewProposalDTO(p))
}

// RegisterRoutes регистрирует маршруты для ProposalHandler.
//
// Routes:
// - POST  /proposals           - Create proposal
// - GET   /proposals           - List proposals
// - GET   /proposals/:id       - Get proposal by ID
// - PATCH /proposals/:id       - Update draft proposal
// - POST  /proposals/:id/start - Start (commit) proposal
func (h *ProposalHandler) RegisterRoutes(router *gin.RouterGroup) {
	proposals := router.Group("/proposals")
	{
		proposals.POST("", h.CreateProposal)
		proposals.GET("", h.ListProposals)
		proposals.GET("/:id", h.GetProposal)
		proposals.PATCH("/:id", h.UpdateProposal)
		proposals.POST("/:id/start", h.StartProposal)
	}
}
