package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/val/markdown-notes/internal/api/response"
	"github.com/val/markdown-notes/internal/domain"
	"github.com/val/markdown-notes/internal/service"
)

type NoteHandler struct {
	noteService *service.NoteService
}

func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

type NoteRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Missing token")
		return
	}

	notes, err := h.noteService.List(r.Context(), userID)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	if len(notes) == 0 {
		response.JSON(w, http.StatusOK, "No notes available", []interface{}{})
		return
	}
	response.JSON(w, http.StatusOK, "Notes retrieved", notes)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Missing token")
		return
	}

	var req NoteRequest
	if err := decodeBody(r, &req); err != nil {
		response.HandleError(w, r, err)
		return
	}

	note, err := h.noteService.Create(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, "Note added succesfully", note)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Missing token")
		return
	}

	id, err := noteID(r)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	note, err := h.noteService.Get(r.Context(), id, userID)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, "Note succesfully retrieved", note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Missing token")
		return
	}

	id, err := noteID(r)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.HandleError(w, r, domain.Validation("Missing mandatory fields"))
		return
	}

	note, err := h.noteService.Update(r.Context(), id, userID, req.Title, req.Content)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, "Note succesfully edited", note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Missing token")
		return
	}

	id, err := noteID(r)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	rows, err := h.noteService.Delete(r.Context(), id, userID)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, "Note succesfully deleted", map[string]int64{"rowsAffected": rows})
}

func noteID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, domain.Validation("Invalid note id")
	}
	return uint(id), nil
}
