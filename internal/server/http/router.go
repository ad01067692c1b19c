// Package httpserver exposes the services over a chi router under /api/v1.
//
// Collections are searched with PATCH and a JSON body, created with POST;
// single records are read with GET, replaced field-wise with PUT and removed
// with DELETE. Errors are rendered as problem JSON.
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/and161185/crudkeeper/internal/service"
)

// Services groups what the router exposes.
type Services struct {
	Auth       *service.AuthService
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Follows    *service.FollowService
	Invoices   *service.InvoiceService
	Users      *service.UserService
	Audit      *service.AuditService
}

// NewRouter registers every route. Middleware order is recover, log, authenticate.
func NewRouter(svc Services, resolver ActorResolver, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(Recover(log), Logging(log), Authenticate(resolver, log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, log, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		ah := authHandlers{svc: svc.Auth, log: log}
		r.Post("/auth/register", ah.register)
		r.Post("/auth/login", ah.login)
		r.Post("/auth/refresh", ah.refresh)

		r.Route("/tasks", func(r chi.Router) {
			r.Patch("/", searchHandler(log, svc.Tasks.List))
			r.Post("/", createHandler(log, svc.Tasks.Create))
			r.Get("/{id}", getHandler(log, svc.Tasks.Get))
			r.Put("/{id}", updateHandler(log, svc.Tasks.Update))
			r.Delete("/{id}", deleteHandler(log, svc.Tasks.Delete))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Patch("/", searchHandler(log, svc.Categories.List))
			r.Post("/", createHandler(log, svc.Categories.Create))
			r.Get("/{id}", getHandler(log, svc.Categories.Get))
			r.Put("/{id}", updateHandler(log, svc.Categories.Update))
			r.Delete("/{id}", deleteHandler(log, svc.Categories.Delete))
		})

		r.Route("/follows", func(r chi.Router) {
			r.Patch("/", searchHandler(log, svc.Follows.Following))
			r.Patch("/followers", searchHandler(log, svc.Follows.Followers))
			r.Post("/", createHandler(log, svc.Follows.Create))
			r.Get("/{id}", getHandler(log, activeOnly(svc.Follows.Get)))
			r.Delete("/{id}", deleteHandler(log, svc.Follows.Delete))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Patch("/", searchHandler(log, svc.Invoices.List))
			r.Post("/", createHandler(log, svc.Invoices.Create))
			r.Get("/{id}", getHandler(log, activeOnly(svc.Invoices.Get)))
			r.Put("/{id}", updateHandler(log, svc.Invoices.Update))
			r.Delete("/{id}", deleteHandler(log, svc.Invoices.Delete))
		})

		r.Route("/users", func(r chi.Router) {
			r.Patch("/", searchHandler(log, svc.Users.List))
			r.Get("/{id}", getHandler(log, svc.Users.Get))
			r.Put("/{id}", updateHandler(log, svc.Users.Update))
			r.Delete("/{id}", deleteHandler(log, svc.Users.Delete))
		})

		r.Patch("/audit", searchHandler(log, svc.Audit.List))
	})
	return r
}
