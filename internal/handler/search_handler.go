package handler

import (
	"errors"
	"net/http"

	"notes-api/internal/middleware"
	"notes-api/internal/service"
	"notes-api/pkg/pagination"
	"notes-api/pkg/response"
)

type SearchHandler struct {
	noteService *service.NoteService
}

func NewSearchHandler(noteService *service.NoteService) *SearchHandler {
	return &SearchHandler{noteService: noteService}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := pagination.Parse(q.Get("page"), q.Get("perPage"))

	notes, meta, err := h.noteService.Search(r.Context(), middleware.GetUserID(r), q.Get("q"), page)
	if err != nil {
		if errors.Is(err, service.ErrSearchQueryRequired) {
			response.BadRequest(w, "Search query is required")
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.Paginated(w, "Notes fetched successfully", toResponses(notes), meta)
}
