package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
)

const productNotFound = "Product not found"

type ProductsHandler struct {
	service port.ProductsService
}

// RegisterProducts mounts the product routes. Reads are public, writes
// need a bearer token.
func RegisterProducts(
	mux *http.ServeMux,
	service port.ProductsService,
	verifier port.TokenVerifier,
) {
	h := ProductsHandler{service}
	auth := RequireAuth(verifier)

	mux.HandleFunc("GET /v1/products", h.List)
	mux.HandleFunc("GET /v1/products/{id}", h.Get)
	mux.Handle("POST /v1/products", chain(h.Create, auth, AllowJSON))
	mux.Handle("PUT /v1/products/{id}", chain(h.Update, auth, AllowJSON))
	mux.Handle("DELETE /v1/products/{id}", chain(h.Delete, auth))
	mux.Handle("POST /v1/products/{id}/duplicate", chain(h.Duplicate, auth))
}

// List answers GET /v1/products. The search query param takes
// precedence over the type filter; category is accepted as an alias of
// type.
func (h ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.List"
	log := slog.With("op", op)

	var (
		ps  []domain.Product
		err error
	)

	q := r.URL.Query()
	productType := q.Get("type")
	if productType == "" {
		productType = q.Get("category")
	}

	switch {
	case q.Has("search"):
		ps, err = h.service.SearchProducts(r.Context(), q.Get("search"))
	case productType != "":
		ps, err = h.service.ProductsByType(r.Context(), productType)
	default:
		ps, err = h.service.Products(r.Context())
	}
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeList(w, log, productsFromDomain(ps), len(ps))
}

func (h ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Get"
	log := slog.With("op", op)

	p, ok, err := h.service.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	if !ok {
		writeNotFound(w, log, productNotFound)
		return
	}

	writeData(w, log, http.StatusOK, productFromDomain(p))
}

func (h ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Create"
	log := slog.With("op", op)

	raw, err := decodeObject(w, r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	principal, _ := PrincipalFrom(r.Context())
	p, err := h.service.CreateProduct(r.Context(), principal, raw)
	if err != nil {
		writeError(w, log, err)
		return
	}

	log.Info("product created", "productID", p.ID, "userID", principal.UserID)
	writeData(w, log, http.StatusCreated, productFromDomain(p))
}

func (h ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Update"
	log := slog.With("op", op)

	raw, err := decodeObject(w, r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	p, ok, err := h.service.UpdateProduct(r.Context(), r.PathValue("id"), raw)
	if err != nil {
		writeError(w, log, err)
		return
	}
	if !ok {
		writeNotFound(w, log, productNotFound)
		return
	}

	writeData(w, log, http.StatusOK, productFromDomain(p))
}

func (h ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Delete"
	log := slog.With("op", op)

	id := r.PathValue("id")
	deleted, err := h.service.DeleteProduct(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	if !deleted {
		writeNotFound(w, log, productNotFound)
		return
	}

	log.Info("product deleted", "productID", id)
	writeMessage(w, log, "Product deleted successfully")
}

func (h ProductsHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Duplicate"
	log := slog.With("op", op)

	principal, _ := PrincipalFrom(r.Context())
	p, ok, err := h.service.DuplicateProduct(
		r.Context(), principal, r.PathValue("id"),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	if !ok {
		writeNotFound(w, log, productNotFound)
		return
	}

	writeData(w, log, http.StatusCreated, productFromDomain(p))
}
