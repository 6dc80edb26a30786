package httphandler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/niksmo/e-label/internal/core/port"
)

// LabelsHandler serves the public e-label pages linked from QR codes.
type LabelsHandler struct {
	reader   port.LabelReader
	renderer port.LabelRenderer
}

func RegisterLabels(
	mux *http.ServeMux, reader port.LabelReader, renderer port.LabelRenderer,
) {
	h := LabelsHandler{reader, renderer}
	mux.HandleFunc("GET /l/{id}", h.Label)
	mux.HandleFunc("GET /l/{id}/qr.png", h.QRCode)
}

func (h LabelsHandler) Label(w http.ResponseWriter, r *http.Request) {
	const op = "LabelsHandler.Label"
	log := slog.With("op", op)

	id := r.PathValue("id")
	p, ok, err := h.reader.ReadLabel(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	if !ok {
		writeNotFound(w, log, productNotFound)
		return
	}

	labelURL := h.renderer.LabelURL(id)
	writeData(w, log, http.StatusOK, Label{
		Product:  productFromDomain(p),
		LabelURL: labelURL,
		QRURL:    labelURL + "/qr.png",
	})
}

func (h LabelsHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	const op = "LabelsHandler.QRCode"
	log := slog.With("op", op)

	id := r.PathValue("id")
	_, ok, err := h.reader.ReadLabel(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	if !ok {
		writeNotFound(w, log, productNotFound)
		return
	}

	img, err := h.renderer.RenderQR(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func RegisterHealth(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, slog.Default(), http.StatusOK, map[string]string{"status": "ok"})
	})
}
