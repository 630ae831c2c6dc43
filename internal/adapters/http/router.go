// Package http - Router configuration for REST API.
//
// Router собирает все handlers и middleware в единую точку входа.
//
// Pattern: Composition Root
// - Все зависимости собираются здесь
// - Handlers получают только нужные им use cases
// - Middleware применяется к соответствующим группам routes
package http

import (
	"log/slog"

	"github.com/Haleralex/wallethub/internal/adapters/http/common"
	"github.com/Haleralex/wallethub/internal/adapters/http/handlers"
	"github.com/Haleralex/wallethub/internal/adapters/http/middleware"
	"github.com/Haleralex/wallethub/internal/domain/entities"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// ============================================
// Router Configuration
// ============================================

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	// Logger для middleware
	Logger *slog.Logger
	// Database pool для health checks
	Pool *pgxpool.Pool
	// Version приложения
	Version string
	// BuildTime время сборки
	BuildTime string
	// Environment (development, staging, production)
	Environment string
	// AllowedOrigins для CORS (production)
	AllowedOrigins []string
	// AuthTokenValidator - функция валидации токена
	AuthTokenValidator func(token string) (*middleware.AuthClaims, error)
	// ServiceName передаётся в otelgin.Middleware для именования spans.
	ServiceName string
}

// DefaultRouterConfig - конфигурация по умолчанию для development.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:             slog.Default(),
		Version:            "dev",
		BuildTime:          "unknown",
		Environment:        "development",
		AllowedOrigins:     []string{"*"},
		AuthTokenValidator: middleware.MockTokenValidator,
		ServiceName:        "wallethub",
	}
}

// ============================================
// Use Case Providers
// ============================================

// WalletUseCases - provider для wallet use cases.
type WalletUseCases struct {
	CreateWallet handlers.CreateWalletUseCase
	GetWallet    handlers.GetWalletUseCase
	ListWallets  handlers.ListWalletsUseCase
	DeleteWallet handlers.DeleteWalletUseCase
}

// ProposalUseCases - provider для proposal use cases.
type ProposalUseCases struct {
	CreateProposal handlers.CreateProposalUseCase
	GetProposal    handlers.GetProposalUseCase
	ListProposals  handlers.ListProposalsUseCase
	UpdateProposal handlers.UpdateProposalUseCase
	StartProposal  handlers.StartProposalUseCase
}

// HoldUseCases - provider для hold use cases.
type HoldUseCases struct {
	CreateHold handlers.CreateHoldUseCase
	ListHolds  handlers.ListHoldsUseCase
	UpdateHold handlers.UpdateHoldUseCase
}

// LedgerUseCases - provider для ledger (transaction) use cases.
type LedgerUseCases struct {
	GetTransaction   handlers.GetTransactionUseCase
	ListTransactions handlers.ListTransactionsUseCase
	AddNote          handlers.AddTransactionNoteUseCase
}

// ============================================
// Router Builder
// ============================================

// RouterBuilder - builder для создания роутера.
//
// Pattern: Builder
// - Позволяет пошагово настроить роутер
// - Проще тестировать
// - Можно переиспользовать части конфигурации
type RouterBuilder struct {
	config    *RouterConfig
	wallets   *WalletUseCases
	proposals *ProposalUseCases
	holds     *HoldUseCases
	ledger    *LedgerUseCases
}

// NewRouterBuilder создаёт новый builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{
		config: config,
	}
}

// WithWalletUseCases добавляет wallet use cases.
func (b *RouterBuilder) WithWalletUseCases(useCases *WalletUseCases) *RouterBuilder {
	b.wallets = useCases
	return b
}

// WithProposalUseCases добавляет proposal use cases.
func (b *RouterBuilder) WithProposalUseCases(useCases *ProposalUseCases) *RouterBuilder {
	b.proposals = useCases
	return b
}

// WithHoldUseCases добавляет hold use cases.
func (b *RouterBuilder) WithHoldUseCases(useCases *HoldUseCases) *RouterBuilder {
	b.holds = useCases
	return b
}

// WithLedgerUseCases добавляет ledger use cases.
func (b *RouterBuilder) WithLedgerUseCases(useCases *LedgerUseCases) *RouterBuilder {
	b.ledger = useCases
	return b
}

// Build создаёт сконфигурированный Gin Engine.
func (b *RouterBuilder) Build() *gin.Engine {
	// Настраиваем режим Gin
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Создаём router без default middleware
	router := gin.New()

	// Настраиваем кастомные валидаторы
	handlers.SetupValidator()

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Recovery - должен быть первым
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 2. Request ID
	router.Use(middleware.RequestID())

	// 2b. Tracing - wraps every request in an otel span so the proposal
	// commit and wallet balance spans downstream nest under it.
	serviceName := b.config.ServiceName
	if serviceName == "" {
		serviceName = "wallethub"
	}
	router.Use(otelgin.Middleware(serviceName))

	// 3. CORS
	if b.config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(b.config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}

	// 4. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{"/health", "/live", "/ready", "/metrics"},
	}))

	// 5. Rate Limiting (global)
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	// 6. Metrics (Prometheus)
	router.Use(middleware.Metrics())

	// ============================================
	// Metrics Endpoint (no auth)
	// ============================================

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============================================
	// Health Check Routes (no auth)
	// ============================================

	healthHandler := handlers.NewHealthHandler(
		b.config.Pool,
		b.config.Version,
		b.config.BuildTime,
	)
	healthHandler.RegisterRoutes(router)

	// ============================================
	// API v1 Routes
	// ============================================

	v1 := router.Group("/api/v1")

	// Protected routes (auth required) — every operation in this kernel is
	// tenant-scoped, so there is no public surface beyond health/metrics.
	protectedGroup := v1.Group("")
	protectedGroup.Use(middleware.Auth(&middleware.AuthConfig{
		TokenValidator: b.config.AuthTokenValidator,
		SkipPaths:      []string{},
	}))
	{
		if b.wallets != nil {
			walletHandler := handlers.NewWalletHandler(
				b.wallets.CreateWallet,
				b.wallets.GetWallet,
				b.wallets.ListWallets,
				b.wallets.DeleteWallet,
			)
			walletHandler.RegisterRoutes(protectedGroup)
		}

		if b.proposals != nil {
			proposalHandler := handlers.NewProposalHandler(
				b.proposals.CreateProposal,
				b.proposals.GetProposal,
				b.proposals.ListProposals,
				b.proposals.UpdateProposal,
				b.proposals.StartProposal,
			)
			// Starting a proposal moves funds atomically; keep it under the
			// same stricter limiter the teacher reserves for financial ops.
			financialOps := protectedGroup.Group("")
			financialOps.Use(middleware.TransactionRateLimit())
			proposalHandler.RegisterRoutes(financialOps)
		}

		if b.holds != nil {
			holdHandler := handlers.NewHoldHandler(
				b.holds.CreateHold,
				b.holds.ListHolds,
				b.holds.UpdateHold,
			)
			holdHandler.RegisterRoutes(protectedGroup)
		}

		if b.ledger != nil {
			ledgerHandler := handlers.NewTransactionHandler(
				b.ledger.GetTransaction,
				b.ledger.ListTransactions,
				b.ledger.AddNote,
			)
			ledgerHandler.RegisterRoutes(protectedGroup)
		}
	}

	// ============================================
	// Admin Routes (business/app issuer required)
	// ============================================

	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.Auth(&middleware.AuthConfig{
		TokenValidator: b.config.AuthTokenValidator,
	}))
	adminGroup.Use(middleware.RequireIssuer(entities.IssuerBusiness, entities.IssuerApp))
	{
		// Reserved for operator-facing endpoints: outbox replay triggers,
		// stuck-proposal inspection, and similar tenant-admin tooling.
	}

	// ============================================
	// 404 Handler
	// ============================================

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, 404, &common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "Endpoint not found",
			Details: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router
}

// ============================================
// Quick Setup Functions
// ============================================

// NewRouter создаёт роутер с базовой конфигурацией (для простых случаев).
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}

// NewDevelopmentRouter создаёт роутер для development окружения.
func NewDevelopmentRouter() *gin.Engine {
	config := DefaultRouterConfig()
	config.Environment = "development"
	return NewRouter(config)
}

// NewProductionRouter создаёт роутер для production окружения.
func NewProductionRouter(pool *pgxpool.Pool, version string, allowedOrigins []string) *gin.Engine {
	config := &RouterConfig{
		Logger:         slog.Default(),
		Pool:           pool,
		Version:        version,
		Environment:    "production",
		AllowedOrigins: allowedOrigins,
		// В production нужен реальный token validator
		AuthTokenValidator: nil, // Должен быть установлен!
	}
	return NewRouter(config)
}
