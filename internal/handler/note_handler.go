package handler

import (
	"errors"
	"net/http"
	"strings"

	"notes-api/internal/domain"
	"notes-api/internal/middleware"
	"notes-api/internal/service"
	"notes-api/pkg/pagination"
	"notes-api/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type NoteHandler struct {
	noteService *service.NoteService
	validator   *validator.Validate
}

func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		validator:   newValidator(),
	}
}

func toResponses(notes []*domain.Note) []*domain.NoteResponse {
	out := make([]*domain.NoteResponse, len(notes))
	for i, n := range notes {
		out[i] = n.ToResponse()
	}
	return out
}

// writeNoteError maps service errors; denied is the message for ErrAccessDenied.
func writeNoteError(w http.ResponseWriter, err error, denied string) {
	switch {
	case errors.Is(err, service.ErrNoteNotFound):
		response.NotFound(w, "Note not found")
	case errors.Is(err, service.ErrAccessDenied):
		response.Forbidden(w, denied)
	default:
		response.InternalError(w, err.Error())
	}
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := pagination.Parse(q.Get("page"), q.Get("perPage"))

	notes, meta, err := h.noteService.List(r.Context(), middleware.GetUserID(r), page)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Paginated(w, "Notes fetched successfully", toResponses(notes), meta)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]

	note, err := h.noteService.Get(r.Context(), middleware.GetUserID(r), noteID)
	if err != nil {
		writeNoteError(w, err, "You do not have access to this note")
		return
	}

	response.Success(w, "Note fetched successfully", note.ToResponse())
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoteRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	note, err := h.noteService.Create(r.Context(), middleware.GetUserID(r), &req)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Created(w, "Note created successfully", note.ToResponse())
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]

	var req domain.UpdateNoteRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	note, err := h.noteService.Update(r.Context(), middleware.GetUserID(r), noteID, &req)
	if err != nil {
		writeNoteError(w, err, "You do not have access to update this note")
		return
	}

	response.Success(w, "Note updated successfully", note.ToResponse())
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]

	if err := h.noteService.Delete(r.Context(), middleware.GetUserID(r), noteID); err != nil {
		writeNoteError(w, err, "You do not have access to delete this note")
		return
	}

	response.Success(w, "Note deleted successfully", nil)
}

func (h *NoteHandler) Share(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]

	var req domain.ShareNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	for i, email := range req.Emails {
		req.Emails[i] = strings.TrimSpace(email)
	}
	if err := h.validator.Struct(&req); err != nil {
		messages := validationMessages(err)
		response.ValidationError(w, strings.Join(messages, ", "), messages)
		return
	}

	result, err := h.noteService.ShareByID(r.Context(), middleware.GetUserID(r), noteID, req.Emails)
	if err != nil {
		writeNoteError(w, err, "Only the owner can share this note")
		return
	}

	if !result.Success {
		message := result.Error
		if message == "" {
			message = "Unable to share note"
		}
		response.BadRequest(w, message)
		return
	}

	response.Success(w, "Note shared successfully", nil)
}
