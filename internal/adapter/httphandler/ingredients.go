package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
)

const ingredientNotFound = "Ingredient not found"

type IngredientsHandler struct {
	service port.IngredientsService
}

// RegisterIngredients mounts the ingredient routes. Reads are public, writes
// need a bearer token.
func RegisterIngredients(
	mux *http.ServeMux,
	service port.IngredientsService,
	verifier port.TokenVerifier,
) {
	h := IngredientsHandler{service}
	auth := RequireAuth(verifier)

	mux.HandleFunc("GET /v1/ingredients", h.List)
	mux.HandleFunc("GET /v1/ingredients/{id}", h.Get)
	mux.Handle("POST /v1/ingredients", chain(h.Create, auth, AllowJSON))
	mux.Handle("PUT /v1/ingredients/{id}", chain(h.Update, auth, AllowJSON))
	mux.Handle("DELETE /v1/ingredients/{id}", chain(h.Delete, auth))
	mux.Handle("POST /v1/ingredients/{id}/duplicate", chain(h.Duplicate, auth))
}

// List answers GET /v1/ingredients with optional search, category and
// allergen query params, checked in that order.
func (h IngredientsHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "IngredientsHandler.List"
	log := slog.With("op", op)

	var (
		vs  []domain.Ingredient
		err error
	)

	q := r.URL.Query()
	switch {
	case q.Has("search"):
		vs, err = h.service.SearchIngredients(r.Context(), q.Get("search"))
	case q.Get("category") != "":
		vs, err = h.service.IngredientsByCategory(r.Context(), q.Get("category"))
	case q.Get("allergen") != "":
		vs, err = h.service.IngredientsByAllergen(r.Context(), q.Get("allergen"))
	default:
		vs, err = h.service.Ingredients(r.Context())
	}
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeList(w, log, ingredientsFromDomain(vs), len(vs))
}

func (h IngredientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "IngredientsHandler.Get"
	log := slog.With("op", op)

	v, ok, err := h.service.Ingredient(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	if !ok {
		writeNotFound(w, log, ingredientNotFound)
		return
	}

	writeData(w, log, http.StatusOK, ingredientFromDomain(v))
}

func (h IngredientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "IngredientsHandler.Create"
	log := slog.With("op", op)

	raw, err := decodeObject(w, r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	principal, _ := PrincipalFrom(r.Context())
	v, err := h.service.CreateIngredient(r.Context(), principal, raw)
	if err != nil {
		writeError(w, log, err)
		return
	}

	log.Info("ingredient created", "ingredientID", v.ID, "userID", principal.UserID)
	writeData(w, log, http.StatusCreated, ingredientFromDomain(v))
}

func (h IngredientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "IngredientsHandler.Update"
	log := slog.With("op", op)

	raw, err := decodeObject(w, r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	v, ok, err := h.service.UpdateIngredient(r.Context(), r.PathValue("id"), raw)
	if err != nil {
		writeError(w, log, err)
		return
	}
	if !ok {
		writeNotFound(w, log, ingredientNotFound)
		return
	}

	writeData(w, log, http.StatusOK, ingredientFromDomain(v))
}

func (h IngredientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "IngredientsHandler.Delete"
	log := slog.With("op", op)

	id := r.PathValue("id")
	deleted, err := h.service.DeleteIngredient(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	if !deleted {
		writeNotFound(w, log, ingredientNotFound)
		return
	}

	log.Info("ingredient deleted", "ingredientID", id)
	writeMessage(w, log, "Ingredient deleted successfully")
}

func (h IngredientsHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	const op = "IngredientsHandler.Duplicate"
	log := slog.With("op", op)

	principal, _ := PrincipalFrom(r.Context())
	v, ok, err := h.service.DuplicateIngredient(
		r.Context(), principal, r.PathValue("id"),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	if !ok {
		writeNotFound(w, log, ingredientNotFound)
		return
	}

	writeData(w, log, http.StatusCreated, ingredientFromDomain(v))
}
