package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/kitchenpos-backend/api/controllers"
	"github.com/angelmondragon/kitchenpos-backend/api/middleware"
	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/internal/ingredients"
	"github.com/angelmondragon/kitchenpos-backend/internal/loyalty"
	"github.com/angelmondragon/kitchenpos-backend/internal/products"
	"github.com/angelmondragon/kitchenpos-backend/internal/recipes"
	"github.com/angelmondragon/kitchenpos-backend/internal/sales"
	"github.com/angelmondragon/kitchenpos-backend/pkg/config"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/kitchenpos-backend/pkg/redis"
)

// Services groups the domain services served over HTTP. A nil service makes
// its routes answer 500.
type Services struct {
	Ingredients ingredients.Service
	Recipes     recipes.Service
	Products    products.Service
	Sales       sales.Service
	Customers   loyalty.Service
	Costing     costing.Service
}

// Dependencies carries the infrastructure probed by readiness and used by
// middleware. Redis is optional; a nil store disables idempotency replay.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	Metrics     http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Actor(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Idempotency, logg))
		r.Get("/ping", controllers.Ping())

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", controllers.IngredientList(svcs.Ingredients, logg))
			r.Post("/", controllers.IngredientCreate(svcs.Ingredients, logg))
			r.Post("/import", controllers.IngredientImport(svcs.Ingredients, logg))
			r.Route("/{ingredientId}", func(r chi.Router) {
				r.Get("/", controllers.IngredientGet(svcs.Ingredients, logg))
				r.Patch("/", controllers.IngredientUpdate(svcs.Ingredients, logg))
				r.Delete("/", controllers.IngredientDelete(svcs.Ingredients, logg))
				r.Post("/restock", controllers.IngredientRestock(svcs.Ingredients, logg))
				r.Post("/count", controllers.IngredientCount(svcs.Ingredients, logg))
				r.Put("/aliases", controllers.IngredientSetAliases(svcs.Ingredients, logg))
				r.Put("/sellable", controllers.IngredientSetSellable(svcs.Ingredients, logg))
				r.Get("/history", controllers.IngredientHistory(svcs.Ingredients, logg))
			})
		})
		r.Get("/history", controllers.History(svcs.Ingredients, logg))

		r.Route("/recipes/{productId}", func(r chi.Router) {
			r.Get("/", controllers.RecipeGet(svcs.Recipes, logg))
			r.Put("/", controllers.RecipeReplace(svcs.Recipes, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Products, logg))
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", controllers.ProductGet(svcs.Products, logg))
				r.Patch("/", controllers.ProductUpdate(svcs.Products, logg))
				r.Get("/availability", controllers.ProductAvailability(svcs.Products, logg))
				r.Get("/cost", controllers.ProductCost(svcs.Products, logg))
			})
		})
		r.Get("/availability", controllers.AvailabilityList(svcs.Products, logg))

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", controllers.TransactionCreate(svcs.Sales, logg))
			r.Route("/{transactionId}", func(r chi.Router) {
				r.Get("/", controllers.TransactionGet(svcs.Sales, logg))
				r.Post("/settle", controllers.TransactionSettle(svcs.Sales, logg))
				r.Post("/confirm-payment", controllers.TransactionConfirmPayment(svcs.Sales, logg))
				r.Post("/cancel", controllers.TransactionCancel(svcs.Sales, logg))
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.CustomerCreate(svcs.Customers, logg))
			r.Get("/{customerId}", controllers.CustomerGet(svcs.Customers, logg))
		})

		r.Post("/maintenance/recost", controllers.MaintenanceRecost(svcs.Costing, logg))
	})

	return r
}
