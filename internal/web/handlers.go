package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/logging"
	"github.com/go-chi/chi/v5"
)

// maxActionBody bounds an action payload. Bulk row loads belong on /api/import.
const maxActionBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.store.Version(),
	})
}

// handleState returns the full store snapshot, drafts included.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.store.Snapshot())
}

// handleView returns the current page of the derived view.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.store.View())
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string][]string{"actions": core.ActionNames()})
}

// handleDispatch decodes the body as the payload of the named action and
// applies it. Validation failures from a save come back in the Result with
// 200; only an unknown action or an unreadable payload is a client error.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxActionBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "action payload too large", "GRID002")
			return
		}
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	action, err := core.DecodeAction(name, payload)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	res := s.store.Dispatch(action)

	logging.FromContext(r.Context()).DebugContext(r.Context(), "action dispatched",
		"action", name,
		"changed", res.Changed,
		"version", res.Version,
		"errors", len(res.Errors),
	)

	writeJSON(w, r, http.StatusOK, res)
}
