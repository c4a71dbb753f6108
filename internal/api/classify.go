package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cairnhq/cairn/internal/hitl"
	"github.com/cairnhq/cairn/internal/workflow"
	"github.com/cairnhq/cairn/pkg/handlers"
	"github.com/cairnhq/cairn/pkg/routes"
)

var errTextRequired = errors.New("text is required")

// classifyHandler exposes the unattended classification run. It accepts
// the same inputs the staged review does and returns the final
// classification once every auto-approved stage has been recorded.
type classifyHandler struct {
	rt     *workflow.Runtime
	logger *slog.Logger
}

func newClassifyHandler(rt *workflow.Runtime, logger *slog.Logger) *classifyHandler {
	return &classifyHandler{
		rt:     rt,
		logger: logger.With("handler", "classify"),
	}
}

func (h *classifyHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/classify",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.run},
		},
	}
}

func (h *classifyHandler) run(w http.ResponseWriter, r *http.Request) {
	var req workflow.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if req.Text == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errTextRequired)
		return
	}

	result, err := workflow.Execute(r.Context(), h.rt, req)
	if err != nil {
		handlers.RespondError(w, h.logger, hitl.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
