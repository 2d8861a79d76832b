package controllers

import (
	"net/http"

	"github.com/angelmondragon/kitchenpos-backend/api/responses"
	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

// MaintenanceRecost rebuilds the cached cost of every active product.
func MaintenanceRecost(svc costing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("costing"))
			return
		}
		summary, err := svc.RecomputeAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
