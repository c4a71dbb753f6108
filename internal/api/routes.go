package api

import (
	"net/http"

	"github.com/cairnhq/cairn/internal/config"
	"github.com/cairnhq/cairn/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	storage := newStorageHandler(
		runtime.Storage,
		runtime.Logger,
		int32(cfg.API.Pagination.MaxPageSize),
	)

	classify := newClassifyHandler(domain.Workflow, runtime.Logger)

	routes.Register(
		mux,
		domain.Evidence.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Controls.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		domain.Review.Handler().Routes(),
		classify.routes(),
		storage.routes(),
	)
}
