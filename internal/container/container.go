// Package container - Dependency Injection container for the application.
//
// Container управляет жизненным циклом всех зависимостей:
// - Создание (lazy initialization)
// - Доступ (getters)
// - Закрытие (cleanup)
//
// Pattern: Composition Root
// - Все зависимости собираются в одном месте
// - Легко тестировать
// - Легко заменять реализации
package container

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Haleralex/wallethub/internal/adapters/http"
	"github.com/Haleralex/wallethub/internal/adapters/http/middleware"
	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/application/usecases/hold"
	"github.com/Haleralex/wallethub/internal/application/usecases/ledger"
	"github.com/Haleralex/wallethub/internal/application/usecases/proposal"
	"github.com/Haleralex/wallethub/internal/application/usecases/wallet"
	"github.com/Haleralex/wallethub/internal/application/walletview"
	"github.com/Haleralex/wallethub/internal/config"
	"github.com/Haleralex/wallethub/internal/infrastructure/lock"
	"github.com/Haleralex/wallethub/internal/infrastructure/outbox"
	"github.com/Haleralex/wallethub/internal/infrastructure/persistence/postgres"
	"github.com/Haleralex/wallethub/internal/observability/tracing"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// ============================================
// Container
// ============================================

// Container - DI контейнер приложения.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool        *pgxpool.Pool
	redisClient *redis.Client
	natsConn    *nats.Conn

	// Outbox poller (publishes outbox rows to NATS; nil if config.Outbox.Enabled is false)
	outboxPoller *outbox.Poller

	// Tracing (no-op TracerProvider if config.Tracing.Enabled is false)
	tracingProvider *tracing.Provider

	// Stores
	walletStore   ports.WalletStore
	proposalStore ports.ProposalStore
	holdStore     ports.HoldStore
	ledgerStore   ports.LedgerStore
	noteStore     ports.NoteStore
	businesses    ports.BusinessLookup
	outboxRepo    *postgres.OutboxRepository

	// Unit of Work, locking, balances
	uow          ports.UnitOfWork
	walletLocker ports.WalletLocker
	walletView   *walletview.View

	// Event Publisher (outbox, implements ports.EventPublisher via MarkPublished consumers)
	eventPublisher ports.EventPublisher

	// Wallet Use Cases
	createWalletUC *wallet.CreateWallet
	getWalletUC    *wallet.GetWallet
	listWalletsUC  *wallet.ListWallets
	deleteWalletUC *wallet.DeleteWallet

	// Proposal Use Cases
	createProposalUC *proposal.CreateProposal
	getProposalUC    *proposal.GetProposal
	listProposalsUC  *proposal.ListProposals
	updateProposalUC *proposal.UpdateProposal
	startProposalUC  *proposal.StartProposal

	// Hold Use Cases
	createHoldUC *hold.CreateHold
	listHoldsUC  *hold.ListHolds
	updateHoldUC *hold.UpdateHold

	// Ledger Use Cases
	getTransactionUC   *ledger.GetTransaction
	listTransactionsUC *ledger.ListTransactions
	addNoteUC          *ledger.AddTransactionNote

	// HTTP
	httpServer *http.Server
}

// New создаёт новый контейнер с заданной конфигурацией.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// ============================================
// Initialization
// ============================================

// Initialize инициализирует все зависимости.
func (c *Container) Initialize(ctx context.Context) error {
	c.logger = c.initLogger()
	c.logger.Info("Initializing application container...")

	// 0. Tracing (installs the global TracerProvider before anything else runs)
	if err := c.initTracing(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// 1. Database
	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database connected")

	// 2. Wallet locker (may dial Redis)
	if err := c.initWalletLocker(ctx); err != nil {
		return fmt.Errorf("failed to initialize wallet locker: %w", err)
	}
	c.logger.Info("Wallet locker ready", slog.String("strategy", c.config.Lock.Strategy))

	// 3. Stores
	c.initStores()
	c.logger.Info("Stores initialized")

	// 4. Use Cases
	c.initUseCases()
	c.logger.Info("Use cases initialized")

	// 5. HTTP Server
	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	// 6. Outbox poller (may dial NATS)
	if err := c.initOutboxPoller(); err != nil {
		return fmt.Errorf("failed to initialize outbox poller: %w", err)
	}
	if c.outboxPoller != nil {
		c.logger.Info("Outbox poller ready", slog.String("nats_url", c.config.Outbox.NATSURL))
	}

	c.logger.Info("Container initialization complete")
	return nil
}

// initLogger инициализирует логгер.
func (c *Container) initLogger() *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch c.config.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: c.config.App.Debug,
	}

	if c.config.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// initTracing устанавливает глобальный TracerProvider. При
// config.Tracing.Enabled == false используется no-op provider, так что
// все вызовы tracer.Start(...) в proposal.StartProposal и walletview.View
// остаются рабочими без поднятого OTLP коллектора.
func (c *Container) initTracing(ctx context.Context) error {
	provider, err := tracing.Init(ctx, tracing.Config{
		Enabled:        c.config.Tracing.Enabled,
		ServiceName:    c.config.App.Name,
		ServiceVersion: c.config.App.Version,
		OTLPEndpoint:   c.config.Tracing.OTLPEndpoint,
		Insecure:       c.config.Tracing.Insecure,
	})
	if err != nil {
		return err
	}
	c.tracingProvider = provider
	return nil
}

// initDatabase инициализирует подключение к БД.
func (c *Container) initDatabase(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(c.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = c.config.Database.MaxConnections
	poolConfig.MinConns = c.config.Database.MinConnections
	poolConfig.MaxConnLifetime = c.config.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = c.config.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.pool = pool
	return nil
}

// initWalletLocker выбирает реализацию ports.WalletLocker по
// config.Lock.Strategy. "noop" полагается на row lock из
// WalletStore.FindLockedByID внутри commit-транзакции — достаточно для
// одной реплики приложения. "redis" и "advisory" дают дополнительную
// ordered-mutex гарантию при нескольких репликах.
func (c *Container) initWalletLocker(ctx context.Context) error {
	switch c.config.Lock.Strategy {
	case "redis":
		c.redisClient = redis.NewClient(&redis.Options{
			Addr: c.config.Lock.RedisAddr,
			DB:   c.config.Lock.RedisDB,
		})
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		c.walletLocker = lock.NewRedisLocker(c.redisClient, c.config.Lock.TTL)
	case "advisory":
		c.walletLocker = postgres.NewAdvisoryLocker(c.pool)
	default:
		c.walletLocker = lock.NewNoopLocker()
	}
	return nil
}

// initStores инициализирует персистентность.
func (c *Container) initStores() {
	c.walletStore = postgres.NewWalletStore(c.pool)
	c.proposalStore = postgres.NewProposalStore(c.pool)
	c.holdStore = postgres.NewHoldStore(c.pool)
	c.ledgerStore = postgres.NewLedgerStore(c.pool)
	c.noteStore = postgres.NewNoteStore(c.pool)
	c.businesses = postgres.NewBusinessLookup(c.pool)
	c.outboxRepo = postgres.NewOutboxRepository(c.pool)

	c.uow = postgres.NewUnitOfWork(c.pool)
	c.walletView = walletview.New(c.ledgerStore, c.holdStore)

	// Outbox реализует ports.EventPublisher-совместимый Save внутри
	// use cases; отдельный poller (internal/infrastructure/outbox)
	// публикует накопленные события в NATS.
	c.eventPublisher = c.outboxRepo
}

// initUseCases инициализирует use cases.
func (c *Container) initUseCases() {
	// Wallet
	c.createWalletUC = wallet.NewCreateWallet(c.walletStore, c.outboxRepo, c.uow)
	c.getWalletUC = wallet.NewGetWallet(c.walletStore, c.walletView)
	c.listWalletsUC = wallet.NewListWallets(c.walletStore, c.walletView, c.outboxRepo, c.uow, c.businesses)
	c.deleteWalletUC = wallet.NewDeleteWallet(c.walletStore, c.walletView, c.outboxRepo, c.uow)

	// Proposal
	c.createProposalUC = proposal.NewCreateProposal(c.proposalStore, c.uow)
	c.getProposalUC = proposal.NewGetProposal(c.proposalStore)
	c.listProposalsUC = proposal.NewListProposals(c.proposalStore)
	c.updateProposalUC = proposal.NewUpdateProposal(c.proposalStore, c.uow)
	c.startProposalUC = proposal.NewStartProposal(
		c.proposalStore,
		c.walletStore,
		c.ledgerStore,
		c.noteStore,
		c.walletView,
		c.walletLocker,
		c.outboxRepo,
		c.uow,
		c.businesses,
	)

	// Hold
	c.createHoldUC = hold.NewCreateHold(c.walletStore, c.holdStore, c.outboxRepo, c.uow)
	c.listHoldsUC = hold.NewListHolds(c.holdStore)
	c.updateHoldUC = hold.NewUpdateHold(c.holdStore, c.uow)

	// Ledger
	c.getTransactionUC = ledger.NewGetTransaction(c.ledgerStore, c.noteStore)
	c.listTransactionsUC = ledger.NewListTransactions(c.ledgerStore)
	c.addNoteUC = ledger.NewAddTransactionNote(c.ledgerStore, c.noteStore, c.uow)
}

// initOutboxPoller подключается к NATS и запускает poller, вычитывающий
// неопубликованные записи из outbox (см. internal/infrastructure/outbox).
// Если config.Outbox.Enabled == false, poller не создаётся - удобно для
// окружений без поднятого NATS (тесты, локальная разработка без брокера).
func (c *Container) initOutboxPoller() error {
	if !c.config.Outbox.Enabled {
		return nil
	}

	nc, err := nats.Connect(c.config.Outbox.NATSURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	c.natsConn = nc

	c.outboxPoller = outbox.New(c.outboxRepo, nc, c.logger, outbox.Config{
		SubjectPrefix: c.config.Outbox.SubjectPrefix,
		PollInterval:  c.config.Outbox.PollInterval,
		BatchSize:     c.config.Outbox.BatchSize,
		MaxRetries:    c.config.Outbox.MaxRetries,
	})

	return nil
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() {
	// Token validator
	var tokenValidator func(token string) (*middleware.AuthClaims, error)
	if c.config.Auth.EnableMockAuth {
		tokenValidator = middleware.MockTokenValidator
	} else {
		tokenValidator = middleware.NewJWTTokenValidator(c.config.Auth.JWTSecret, c.config.Auth.JWTIssuer)
	}

	// Router Config
	routerConfig := &http.RouterConfig{
		Logger:             c.logger,
		Pool:               c.pool,
		Version:            c.config.App.Version,
		BuildTime:          c.config.App.BuildTime,
		Environment:        c.config.App.Environment,
		AllowedOrigins:     c.config.CORS.AllowedOrigins,
		AuthTokenValidator: tokenValidator,
		ServiceName:        c.config.App.Name,
	}

	// Build Router
	router := http.NewRouterBuilder(routerConfig).
		WithWalletUseCases(&http.WalletUseCases{
			CreateWallet: c.createWalletUC,
			GetWallet:    c.getWalletUC,
			ListWallets:  c.listWalletsUC,
			DeleteWallet: c.deleteWalletUC,
		}).
		WithProposalUseCases(&http.ProposalUseCases{
			CreateProposal: c.createProposalUC,
			GetProposal:    c.getProposalUC,
			ListProposals:  c.listProposalsUC,
			UpdateProposal: c.updateProposalUC,
			StartProposal:  c.startProposalUC,
		}).
		WithHoldUseCases(&http.HoldUseCases{
			CreateHold: c.createHoldUC,
			ListHolds:  c.listHoldsUC,
			UpdateHold: c.updateHoldUC,
		}).
		WithLedgerUseCases(&http.LedgerUseCases{
			GetTransaction:   c.getTransactionUC,
			ListTransactions: c.listTransactionsUC,
			AddNote:          c.addNoteUC,
		}).
		Build()

	// Server Config
	serverConfig := &http.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            fmt.Sprintf("%d", c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = http.NewServer(serverConfig, router)
}

// ============================================
// Getters
// ============================================

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Pool возвращает пул соединений к БД.
func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *http.Server {
	return c.httpServer
}

// ============================================
// Store Getters
// ============================================

// WalletStore возвращает хранилище кошельков.
func (c *Container) WalletStore() ports.WalletStore {
	return c.walletStore
}

// ProposalStore возвращает хранилище proposal'ов.
func (c *Container) ProposalStore() ports.ProposalStore {
	return c.proposalStore
}

// HoldStore возвращает хранилище holds.
func (c *Container) HoldStore() ports.HoldStore {
	return c.holdStore
}

// LedgerStore возвращает хранилище проводок.
func (c *Container) LedgerStore() ports.LedgerStore {
	return c.ledgerStore
}

// UnitOfWork возвращает Unit of Work.
func (c *Container) UnitOfWork() ports.UnitOfWork {
	return c.uow
}

// WalletLocker возвращает используемую стратегию блокировки кошельков.
func (c *Container) WalletLocker() ports.WalletLocker {
	return c.walletLocker
}

// OutboxPoller возвращает poller, публикующий outbox в NATS (nil, если
// config.Outbox.Enabled == false).
func (c *Container) OutboxPoller() *outbox.Poller {
	return c.outboxPoller
}

// TracingProvider возвращает установленный TracerProvider wrapper.
func (c *Container) TracingProvider() *tracing.Provider {
	return c.tracingProvider
}

// ============================================
// Use Case Getters
// ============================================

// CreateWalletUseCase возвращает use case создания кошелька.
func (c *Container) CreateWalletUseCase() *wallet.CreateWallet {
	return c.createWalletUC
}

// ListWalletsUseCase возвращает use case листинга кошельков.
func (c *Container) ListWalletsUseCase() *wallet.ListWallets {
	return c.listWalletsUC
}

// StartProposalUseCase возвращает use case запуска proposal (commit phase).
func (c *Container) StartProposalUseCase() *proposal.StartProposal {
	return c.startProposalUC
}

// ============================================
// Shutdown
// ============================================

// Shutdown выполняет graceful shutdown всех компонентов.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	var errs []error

	// 1. HTTP Server
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	// 2. Outbox poller
	if c.outboxPoller != nil {
		c.outboxPoller.Stop()
	}
	if c.natsConn != nil {
		if err := c.natsConn.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("nats drain: %w", err))
		}
	}

	// 3. Redis (если используется)
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis client close: %w", err))
		}
	}

	// 4. Database (даём время на завершение транзакций)
	if c.pool != nil {
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("Database connection closed")
		case <-ctx.Done():
			c.logger.Warn("Database close timeout")
		}
	}

	// 5. Tracing (flush buffered spans last, so it can capture the above)
	if c.tracingProvider != nil {
		if err := c.tracingProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// ============================================
// Run
// ============================================

// Run запускает приложение и ожидает сигнал завершения.
func (c *Container) Run() error {
	c.logger.Info("Starting wallethub API Server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	if c.outboxPoller != nil {
		go c.outboxPoller.Run(context.Background())
	}

	return c.httpServer.Run()
}

// ============================================
// Builder Pattern (Alternative)
// ============================================

// ContainerBuilder - builder для создания контейнера с кастомными компонентами.
type ContainerBuilder struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	walletLocker   ports.WalletLocker
	eventPublisher ports.EventPublisher
}

// NewBuilder создаёт новый builder.
func NewBuilder(cfg *config.Config) *ContainerBuilder {
	return &ContainerBuilder{
		cfg: cfg,
	}
}

// WithLogger устанавливает кастомный логгер.
func (b *ContainerBuilder) WithLogger(logger *slog.Logger) *ContainerBuilder {
	b.logger = logger
	return b
}

// WithPool устанавливает готовый пул соединений.
func (b *ContainerBuilder) WithPool(pool *pgxpool.Pool) *ContainerBuilder {
	b.pool = pool
	return b
}

// WithWalletLocker устанавливает кастомную стратегию блокировки (удобно в тестах).
func (b *ContainerBuilder) WithWalletLocker(locker ports.WalletLocker) *ContainerBuilder {
	b.walletLocker = locker
	return b
}

// WithEventPublisher подменяет event publisher (удобно в тестах, где не
// нужен настоящий outbox poller / NATS).
func (b *ContainerBuilder) WithEventPublisher(publisher ports.EventPublisher) *ContainerBuilder {
	b.eventPublisher = publisher
	return b
}

// Build создаёт контейнер.
func (b *ContainerBuilder) Build(ctx context.Context) (*Container, error) {
	c := New(b.cfg)

	// Use provided or initialize
	if b.logger != nil {
		c.logger = b.logger
	} else {
		c.logger = c.initLogger()
	}

	if err := c.initTracing(ctx); err != nil {
		return nil, err
	}

	if b.pool != nil {
		c.pool = b.pool
	} else {
		if err := c.initDatabase(ctx); err != nil {
			return nil, err
		}
	}

	if b.walletLocker != nil {
		c.walletLocker = b.walletLocker
	} else {
		if err := c.initWalletLocker(ctx); err != nil {
			return nil, err
		}
	}

	c.initStores()

	if b.eventPublisher != nil {
		c.eventPublisher = b.eventPublisher
	}

	c.initUseCases()
	c.initHTTPServer()

	return c, nil
}

// ============================================
// Health Check
// ============================================

// HealthStatus - статус здоровья приложения.
type HealthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  time.Duration     `json:"uptime"`
	Checks  map[string]string `json:"checks"`
}

// Health возвращает статус здоровья приложения.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:  "healthy",
		Version: c.config.App.Version,
		Checks:  make(map[string]string),
	}

	// Database check
	if err := c.pool.Ping(ctx); err != nil {
		status.Status = "unhealthy"
		status.Checks["database"] = "error: " + err.Error()
	} else {
		status.Checks["database"] = "ok"
	}

	if c.redisClient != nil {
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			status.Status = "unhealthy"
			status.Checks["redis"] = "error: " + err.Error()
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	if c.natsConn != nil {
		if c.natsConn.IsConnected() {
			status.Checks["nats"] = "ok"
		} else {
			status.Status = "unhealthy"
			status.Checks["nats"] = "disconnected"
		}
	}

	return status
}
