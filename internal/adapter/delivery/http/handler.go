package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vadimbarashkov/bookmarks/internal/entity"
	"github.com/vadimbarashkov/bookmarks/pkg/response"
)

const greeting = "Hello, world!"

func handleGreeting(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, greeting)
}

type bookmarkUseCase interface {
	ListBookmarks(ctx context.Context) ([]entity.Bookmark, error)
	GetBookmark(ctx context.Context, id uuid.UUID) (*entity.Bookmark, error)
	CreateBookmark(ctx context.Context, draft entity.BookmarkDraft) (*entity.Bookmark, error)
	ModifyBookmark(ctx context.Context, id uuid.UUID, patch entity.BookmarkPatch) error
	RemoveBookmark(ctx context.Context, id uuid.UUID) error
}

type bookmarkHandler struct {
	useCase  bookmarkUseCase
	validate *validator.Validate
	logger   *slog.Logger
}

func newBookmarkHandler(useCase bookmarkUseCase, validate *validator.Validate, logger *slog.Logger) *bookmarkHandler {
	return &bookmarkHandler{
		useCase:  useCase,
		validate: validate,
		logger:   logger,
	}
}

// decodeRequest reads and validates a bookmark body. It writes the 400 response itself
// and reports false when the request must not go any further.
func (h *bookmarkHandler) decodeRequest(w http.ResponseWriter, r *http.Request, req *bookmarkRequest) bool {
	if err := render.DecodeJSON(r.Body, req); err != nil {
		render.Status(r, http.StatusBadRequest)

		if errors.Is(err, io.EOF) {
			render.JSON(w, r, response.EmptyRequestBodyResponse)
			return false
		}

		render.JSON(w, r, response.InvalidRequestResponse)
		return false
	}

	return true
}

func (h *bookmarkHandler) validateRequest(w http.ResponseWriter, r *http.Request, req *bookmarkRequest) bool {
	if err := h.validate.Struct(req); err != nil {
		httplog.LogEntrySetField(r.Context(), "validation", slog.StringValue(err.Error()))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return false
	}

	return true
}

func (h *bookmarkHandler) notFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, response.BookmarkNotFoundResponse)
}

// bookmarkID parses the id path parameter. Malformed ids can never match a row.
func bookmarkID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "bookmarkID"))
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

func (h *bookmarkHandler) listBookmarks(w http.ResponseWriter, r *http.Request) error {
	bookmarks, err := h.useCase.ListBookmarks(r.Context())
	if err != nil {
		return err
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toBookmarkResponses(bookmarks))
	return nil
}

func (h *bookmarkHandler) createBookmark(w http.ResponseWriter, r *http.Request) error {
	var req bookmarkRequest

	if !h.decodeRequest(w, r, &req) {
		return nil
	}

	if field, missing := req.missingField(); missing {
		h.logger.Info("bookmark rejected", slog.String("reason", "missing field"), slog.String("field", field))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, requiredFieldResponse(field))
		return nil
	}

	if !h.validateRequest(w, r, &req) {
		return nil
	}

	bookmark, err := h.useCase.CreateBookmark(r.Context(), req.toDraft())
	if err != nil {
		return err
	}

	h.logger.Info("bookmark created", slog.String("id", bookmark.ID.String()))

	w.Header().Set("Location", path.Join(r.URL.Path, bookmark.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toBookmarkResponse(bookmark))
	return nil
}

func (h *bookmarkHandler) getBookmark(w http.ResponseWriter, r *http.Request) error {
	id, ok := bookmarkID(r)
	if !ok {
		h.notFound(w, r)
		return nil
	}

	bookmark, err := h.useCase.GetBookmark(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrBookmarkNotFound) {
			h.notFound(w, r)
			return nil
		}

		return err
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toBookmarkResponse(bookmark))
	return nil
}

func (h *bookmarkHandler) modifyBookmark(w http.ResponseWriter, r *http.Request) error {
	var req bookmarkRequest

	if !h.decodeRequest(w, r, &req) {
		return nil
	}

	patch := req.toPatch()
	if patch.IsEmpty() {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(emptyPatchMessage))
		return nil
	}

	if !h.validateRequest(w, r, &req) {
		return nil
	}

	id, ok := bookmarkID(r)
	if !ok {
		h.notFound(w, r)
		return nil
	}

	if err := h.useCase.ModifyBookmark(r.Context(), id, patch); err != nil {
		if errors.Is(err, entity.ErrBookmarkNotFound) {
			h.notFound(w, r)
			return nil
		}

		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *bookmarkHandler) removeBookmark(w http.ResponseWriter, r *http.Request) error {
	id, ok := bookmarkID(r)
	if !ok {
		h.notFound(w, r)
		return nil
	}

	if err := h.useCase.RemoveBookmark(r.Context(), id); err != nil {
		if errors.Is(err, entity.ErrBookmarkNotFound) {
			h.notFound(w, r)
			return nil
		}

		return err
	}

	h.logger.Info("bookmark deleted", slog.String("id", id.String()))

	w.WriteHeader(http.StatusNoContent)
	return nil
}
