package controllers

import (
	"net/http"

	"github.com/angelmondragon/kitchenpos-backend/api/middleware"
	"github.com/angelmondragon/kitchenpos-backend/api/responses"
)

func Ping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"status": "ok"}
		if user := middleware.UserIDFromContext(r.Context()); user != "" {
			payload["user_id"] = user
		}
		responses.WriteSuccess(w, payload)
	}
}
