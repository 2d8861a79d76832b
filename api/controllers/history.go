package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/kitchenpos-backend/api/responses"
	"github.com/angelmondragon/kitchenpos-backend/api/validators"
	"github.com/angelmondragon/kitchenpos-backend/internal/ingredients"
	"github.com/angelmondragon/kitchenpos-backend/internal/ledger"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
	"github.com/angelmondragon/kitchenpos-backend/pkg/pagination"
)

// historyQuery reads source, user_id, change_id, from, to, cursor and limit.
func historyQuery(r *http.Request) (ledger.HistoryQuery, error) {
	var q ledger.HistoryQuery
	if raw := validators.ParseQueryString(r, "source", 32); raw != nil {
		source, err := enums.ParseHistorySource(*raw)
		if err != nil {
			return q, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid source").WithDetails(map[string]any{"field": "source"})
		}
		q.Source = &source
	}
	q.UserID = validators.ParseQueryString(r, "user_id", 128)
	if raw := validators.ParseQueryString(r, "change_id", 64); raw != nil {
		id, err := validators.ParseUUIDParam(*raw, "change_id")
		if err != nil {
			return q, err
		}
		q.ChangeID = &id
	}
	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return q, err
	}
	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return q, err
	}
	q.From, q.To = from, to

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return q, err
	}
	q.Pagination = pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}
	return q, nil
}

// History pages through history across all ingredients, newest first.
func History(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return historyHandler(svc, logg, false)
}

// IngredientHistory pages through the history of one ingredient.
func IngredientHistory(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return historyHandler(svc, logg, true)
}

func historyHandler(svc ingredients.Service, logg *logger.Logger, scoped bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ingredient"))
			return
		}
		query, err := historyQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if scoped {
			var id uuid.UUID
			id, err = uuidParam(r, "ingredientId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			query.IngredientID = &id
		}
		page, err := svc.History(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
