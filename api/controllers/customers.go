package controllers

import (
	"net/http"

	"github.com/angelmondragon/kitchenpos-backend/api/responses"
	"github.com/angelmondragon/kitchenpos-backend/api/validators"
	"github.com/angelmondragon/kitchenpos-backend/internal/loyalty"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

type createCustomerRequest struct {
	Name  string  `json:"name" validate:"required,max=120"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

func CustomerCreate(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("customer"))
			return
		}
		var payload createCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Create(r.Context(), loyalty.CreateInput{
			Name:  validators.SanitizeString(payload.Name, maxNameLen),
			Phone: payload.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, customer)
	}
}

func CustomerGet(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("customer"))
			return
		}
		id, err := uuidParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}
