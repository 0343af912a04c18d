package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/server/auth"
	"github.com/dmitrijs2005/itemkeeper/internal/server/schemas"
	"github.com/go-chi/chi"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "CRUD API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "API is running"})
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.List(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas.RenderItems(items))
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	req, err := schemas.NormalizeCreate(body)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	item, err := s.items.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "item created", "item_id", item.ID, "sub", subject(r.Context()))
	w.Header().Set("Location", "/items/"+strconv.FormatInt(item.ID, 10))
	writeJSON(w, http.StatusCreated, schemas.RenderItem(item))
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	upd, err := schemas.NormalizeUpdate(body)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	item, err := s.items.Update(r.Context(), id, upd)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "item updated", "item_id", id, "sub", subject(r.Context()))
	writeJSON(w, http.StatusOK, schemas.RenderItem(item))
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := s.items.Delete(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "item deleted", "item_id", id, "sub", subject(r.Context()))
	writeJSON(w, http.StatusOK, schemas.RenderDeleted(item))
}

// handleError maps a pipeline failure to its response. Persistence causes
// were already logged by the service and are not repeated here.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *common.ValidationError
		pe *common.PersistenceError
	)

	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "Item not found")
	case errors.As(err, &pe):
		msg := pe.Error()
		writeError(w, http.StatusInternalServerError, strings.ToUpper(msg[:1])+msg[1:])
	default:
		s.logger.Error(r.Context(), "unhandled error", "error", err.Error(), "request_id", requestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "Unable to read request body")
		return nil, false
	}
	return body, true
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id: must be an integer")
		return 0, false
	}
	return id, true
}

func subject(ctx context.Context) string {
	if c, ok := auth.ClaimsFrom(ctx); ok {
		return c.Subject
	}
	return ""
}
