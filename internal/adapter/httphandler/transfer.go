package httphandler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/niksmo/e-label/internal/adapter/spreadsheet"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxWorkbookSize = 10 << 20
	workbookField   = "file"
)

type (
	exportFunc func(context.Context) ([]byte, error)
	importFunc func(context.Context, domain.Principal, []byte) (domain.ImportReport, error)
)

// TransferHandler serves spreadsheet export and import.
type TransferHandler struct {
	products    port.ProductsService
	ingredients port.IngredientsService
}

func RegisterTransfer(
	mux *http.ServeMux,
	products port.ProductsService,
	ingredients port.IngredientsService,
	verifier port.TokenVerifier,
) {
	h := TransferHandler{products, ingredients}
	auth := RequireAuth(verifier)

	mux.HandleFunc("GET /v1/products/export", h.ExportProducts)
	mux.HandleFunc("GET /v1/ingredients/export", h.ExportIngredients)
	mux.Handle("POST /v1/products/import", chain(h.ImportProducts, auth))
	mux.Handle("POST /v1/ingredients/import", chain(h.ImportIngredients, auth))
}

func (h TransferHandler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	const op = "TransferHandler.ExportProducts"
	h.export(w, r, slog.With("op", op), spreadsheet.ProductsSheet, h.products.ExportProducts)
}

func (h TransferHandler) ExportIngredients(w http.ResponseWriter, r *http.Request) {
	const op = "TransferHandler.ExportIngredients"
	h.export(w, r, slog.With("op", op), spreadsheet.IngredientsSheet, h.ingredients.ExportIngredients)
}

func (h TransferHandler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	const op = "TransferHandler.ImportProducts"
	h.importWorkbook(w, r, slog.With("op", op), h.products.ImportProducts)
}

func (h TransferHandler) ImportIngredients(w http.ResponseWriter, r *http.Request) {
	const op = "TransferHandler.ImportIngredients"
	h.importWorkbook(w, r, slog.With("op", op), h.ingredients.ImportIngredients)
}

func (h TransferHandler) export(
	w http.ResponseWriter, r *http.Request, log *slog.Logger,
	sheet string, fn exportFunc,
) {
	blob, err := fn(r.Context())
	if err != nil {
		writeError(w, log, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(
		"attachment",
		map[string]string{"filename": spreadsheet.FileName(sheet, time.Now())},
	))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func (h TransferHandler) importWorkbook(
	w http.ResponseWriter, r *http.Request, log *slog.Logger, fn importFunc,
) {
	blob, err := readWorkbook(w, r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	principal, _ := PrincipalFrom(r.Context())
	report, err := fn(r.Context(), principal, blob)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeData(w, log, http.StatusOK, importReportFromDomain(report))
}

// readWorkbook accepts either a multipart form with a "file" part or the
// raw xlsx bytes as the request body.
func readWorkbook(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWorkbookSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		blob, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidWorkbook, err)
		}
		if len(blob) == 0 {
			return nil, errNoWorkbook
		}
		return blob, nil
	}

	f, _, err := r.FormFile(workbookField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errNoWorkbook
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidWorkbook, err)
	}
	defer f.Close()

	blob, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidWorkbook, err)
	}
	return blob, nil
}
