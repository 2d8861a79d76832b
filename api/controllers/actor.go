package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/kitchenpos-backend/api/middleware"
	"github.com/angelmondragon/kitchenpos-backend/api/validators"
	"github.com/angelmondragon/kitchenpos-backend/internal/ledger"
)

// actorFromRequest reads the caller set by middleware.Actor.
func actorFromRequest(r *http.Request) ledger.Actor {
	var actor ledger.Actor
	if id := middleware.UserIDFromContext(r.Context()); id != "" {
		actor.UserID = &id
	}
	if name := middleware.UserNameFromContext(r.Context()); name != "" {
		actor.UserName = &name
	}
	return actor
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return validators.ParseUUIDParam(chi.URLParam(r, name), name)
}
