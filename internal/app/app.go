// Package app wires storage, services and transports from a Config.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/crudkeeper/internal/auth"
	"github.com/and161185/crudkeeper/internal/config"
	"github.com/and161185/crudkeeper/internal/crud"
	"github.com/and161185/crudkeeper/internal/limiter"
	"github.com/and161185/crudkeeper/internal/migrate"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/repository"
	"github.com/and161185/crudkeeper/internal/repository/memory"
	"github.com/and161185/crudkeeper/internal/repository/postgres"
	httpserver "github.com/and161185/crudkeeper/internal/server/http"
	"github.com/and161185/crudkeeper/internal/service"
)

// Backend is one storage driver's set of tables and repositories.
type Backend struct {
	Tasks      crud.Store[model.Task]
	Categories crud.Store[model.Category]
	Follows    crud.Store[model.Follow]
	Invoices   crud.Store[model.Invoice]
	UserRows   crud.Store[model.User]
	AuditRows  crud.Store[model.AuditEntry]
	Users      repository.UserRepository
	Orgs       repository.OrgRepository
	Limiter    limiter.Limiter

	// DB is nil for the memory driver.
	DB *postgres.DB
}

// Ping reports storage health; the memory driver is always healthy.
func (b *Backend) Ping(ctx context.Context) error {
	if b.DB == nil {
		return nil
	}
	return b.DB.Ping(ctx)
}

// Close releases the connection pool, if any.
func (b *Backend) Close() {
	if b.DB != nil {
		b.DB.Close()
	}
}

// OpenBackend connects the configured driver. With storage.migrate set,
// pending migrations are applied before the pool is opened.
func OpenBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	lc := cfg.Limiter
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("memory storage driver: data is lost on exit")
		users := memory.NewTable(repository.UserSchema)
		return &Backend{
			Tasks:      memory.NewTable(repository.TaskSchema),
			Categories: memory.NewTable(repository.CategorySchema),
			Follows:    memory.NewTable(repository.FollowSchema),
			Invoices:   memory.NewTable(repository.InvoiceSchema),
			UserRows:   users,
			AuditRows:  memory.NewTable(repository.AuditSchema),
			Users:      memory.NewUserRepo(users),
			Orgs:       memory.NewOrgRepo(),
			Limiter:    limiter.NewMemory(lc.Window, lc.MaxFails, lc.BlockFor),
		}, nil

	case config.DriverPostgres:
		if cfg.Storage.Migrate {
			if err := migrate.Up(ctx, cfg.Storage.DSN, log); err != nil {
				return nil, err
			}
		}
		db, err := postgres.New(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Backend{
			Tasks:      postgres.NewTable(db, repository.TaskSchema),
			Categories: postgres.NewTable(db, repository.CategorySchema),
			Follows:    postgres.NewTable(db, repository.FollowSchema),
			Invoices:   postgres.NewTable(db, repository.InvoiceSchema),
			UserRows:   postgres.NewTable(db, repository.UserSchema),
			AuditRows:  postgres.NewTable(db, repository.AuditSchema),
			Users:      postgres.NewUserRepo(db),
			Orgs:       postgres.NewOrgRepo(db),
			Limiter:    limiter.NewPG(db.Pool, lc.Window, lc.MaxFails, lc.BlockFor),
			DB:         db,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// Tokens builds the token service from the auth section.
func Tokens(cfg config.AuthConfig) *auth.TokenService {
	return auth.NewTokenService([]byte(cfg.SigningKey), cfg.Issuer, cfg.AccessTTL, cfg.RefreshTTL)
}

// Services composes every use case over b. Audit writes go to b's audit table.
func Services(b *Backend, tokens *auth.TokenService, log *zap.Logger) httpserver.Services {
	auditor := crud.NewStoreAuditor(b.AuditRows)
	opts := []crud.Option{crud.WithAuditor(auditor), crud.WithLogger(log)}
	return httpserver.Services{
		Auth:       service.NewAuthService(b.Users, b.Orgs, tokens, b.Limiter, auditor, log),
		Tasks:      service.NewTaskService(b.Tasks, opts...),
		Categories: service.NewCategoryService(b.Categories, opts...),
		Follows:    service.NewFollowService(b.Follows, b.Users, opts...),
		Invoices:   service.NewInvoiceService(b.Invoices, opts...),
		Users:      service.NewUserService(b.UserRows, opts...),
		Audit:      service.NewAuditService(b.AuditRows, opts...),
	}
}
