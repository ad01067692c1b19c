package httpserver

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/crudkeeper/internal/auth"
	"github.com/and161185/crudkeeper/internal/crud"
	"github.com/and161185/crudkeeper/internal/model"
)

// The adapters below bind one service method to one route. Every service
// method takes the request actor first; nil means anonymous.

func searchHandler[In, D any](log *zap.Logger, fn func(context.Context, *model.Actor, In) (crud.Page[D], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decodeBody(w, r, &in); err != nil {
			writeProblem(w, r, log, err)
			return
		}
		page, err := fn(r.Context(), auth.ActorFromContext(r.Context()), in)
		if err != nil {
			writeProblem(w, r, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, page)
	}
}

func createHandler[In, D any](log *zap.Logger, fn func(context.Context, *model.Actor, In) (D, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decodeBody(w, r, &in); err != nil {
			writeProblem(w, r, log, err)
			return
		}
		out, err := fn(r.Context(), auth.ActorFromContext(r.Context()), in)
		if err != nil {
			writeProblem(w, r, log, err)
			return
		}
		writeJSON(w, log, http.StatusCreated, out)
	}
}

func getHandler[D any](log *zap.Logger, fn func(context.Context, *model.Actor, uuid.UUID, bool) (D, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeProblem(w, r, log, err)
			return
		}
		out, err := fn(r.Context(), auth.ActorFromContext(r.Context()), id, includeDeleted(r))
		if err != nil {
			writeProblem(w, r, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, out)
	}
}

func updateHandler[In, D any](log *zap.Logger, fn func(context.Context, *model.Actor, uuid.UUID, In) (D, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeProblem(w, r, log, err)
			return
		}
		var in In
		if err := decodeBody(w, r, &in); err != nil {
			writeProblem(w, r, log, err)
			return
		}
		out, err := fn(r.Context(), auth.ActorFromContext(r.Context()), id, in)
		if err != nil {
			writeProblem(w, r, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, out)
	}
}

func deleteHandler(log *zap.Logger, fn func(context.Context, *model.Actor, uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeProblem(w, r, log, err)
			return
		}
		if err := fn(r.Context(), auth.ActorFromContext(r.Context()), id); err != nil {
			writeProblem(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// activeOnly adapts a getter without an include-deleted switch.
func activeOnly[D any](fn func(context.Context, *model.Actor, uuid.UUID) (D, error)) func(context.Context, *model.Actor, uuid.UUID, bool) (D, error) {
	return func(ctx context.Context, a *model.Actor, id uuid.UUID, _ bool) (D, error) {
		return fn(ctx, a, id)
	}
}
