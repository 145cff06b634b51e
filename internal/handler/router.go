package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/items/backend/internal/handler/events"
	"github.com/zhouzirui/items/backend/internal/handler/item"
	middlewarePkg "github.com/zhouzirui/items/backend/internal/middleware"
	itemService "github.com/zhouzirui/items/backend/internal/service/item"
	"github.com/zhouzirui/items/backend/pkg/utils"
)

// Options carries the cross-cutting settings the router needs.
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services. feed may be nil, in which
// case the change-feed endpoints are not registered.
func NewRouter(items *itemService.Service, feed events.Subscriber, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(opts.AllowedOrigins))

	itemHandler := item.New(items)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/items", func(api chi.Router) {
		// Static feed paths are matched before /{itemID}.
		if feed != nil {
			events.New(feed).RegisterRoutes(api)
		}
		itemHandler.RegisterRoutes(api)
	})

	return r
}
