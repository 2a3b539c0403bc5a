package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type linkUseCase interface {
	CreateLink(ctx context.Context, ownerID, originalURL string) (*entity.Link, error)
	ListLinks(ctx context.Context, ownerID string) ([]*entity.Link, error)
	GetLink(ctx context.Context, ownerID, shortCode string) (*entity.Link, error)
}

type resolver interface {
	Resolve(ctx context.Context, shortCode string) (string, error)
}

type linkHandler struct {
	links    linkUseCase
	resolver resolver
	baseURL  string
	validate *validator.Validate
}

func newLinkHandler(links linkUseCase, resolver resolver, baseURL string, validate *validator.Validate) *linkHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &linkHandler{
		links:    links,
		resolver: resolver,
		baseURL:  baseURL,
		validate: validate,
	}
}

// renderError answers with the response matching the error kind.
// Unexpected errors are attached to the request log line.
func renderError(w http.ResponseWriter, r *http.Request, err error, unavailable errorResponse) {
	switch {
	case errors.Is(err, entity.ErrLinkNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, linkNotFoundResponse)
	case errors.Is(err, entity.ErrRetriesExhausted), errors.Is(err, entity.ErrStoreUnavailable):
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		w.Header().Set("Retry-After", "1")
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, unavailable)
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
	}
}

func (h *linkHandler) createLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	link, err := h.links.CreateLink(r.Context(), ownerIDFrom(r.Context()), req.OriginalURL)
	if err != nil {
		renderError(w, r, err, createRetryResponse)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toLinkResponse(link, h.baseURL))
}

func (h *linkHandler) listLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.links.ListLinks(r.Context(), ownerIDFrom(r.Context()))
	if err != nil {
		renderError(w, r, err, unavailableResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkListResponse(links, h.baseURL))
}

func (h *linkHandler) getLink(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	link, err := h.links.GetLink(r.Context(), ownerIDFrom(r.Context()), shortCode)
	if err != nil {
		renderError(w, r, err, unavailableResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponse(link, h.baseURL))
}

func (h *linkHandler) visit(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	originalURL, err := h.resolver.Resolve(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err, unavailableResponse)
		return
	}

	http.Redirect(w, r, originalURL, http.StatusFound)
}
