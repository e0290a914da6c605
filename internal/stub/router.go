package stub

import (
	"net/http"

	"github.com/ashureev/docqa/internal/api"
	"github.com/ashureev/docqa/internal/identity"
	"github.com/ashureev/docqa/internal/middleware"
	"github.com/ashureev/docqa/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	TopK           int
	MaxUploadBytes int64
	CORSOrigins    []string
	SecureCookies  bool
	RequestLogging bool
}

// NewRouter wires the backend endpoints.
func NewRouter(repo store.Repository, opts RouterOptions) http.Handler {
	h := NewHandler(repo, opts.TopK)
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if opts.RequestLogging {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(origins))

	r.Get("/health/ready", h.Ready)

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBody(opts.MaxUploadBytes))
		r.Use(identity.Middleware(repo, opts.SecureCookies))

		r.Post(api.PathUpload, h.Upload)
		r.Post(api.PathQuery, h.Query)
		r.Post(api.PathClear, h.Clear)
		r.Get(api.PathStats, h.Stats)
	})

	return r
}
