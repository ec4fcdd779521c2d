package proxy

import (
	"encoding/json"
	"net/http"

	"github.com/briefspark/briefspark/internal/log"
	"github.com/samber/do"
)

type errorBody struct {
	Error string `json:"error"`
}

// Handler is the plain HTTP front for the service: POST /generate-image.
type Handler struct {
	service *Service
}

func NewHandler(i *do.Injector) (*Handler, error) {
	return &Handler{service: do.MustInvoke[*Service](i)}, nil
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/generate-image", h.generateImage)
	return mux
}

func (h *Handler) generateImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}

	var in struct {
		Prompt string `json:"prompt"`
	}
	// an unreadable body is indistinguishable from a missing prompt
	_ = json.NewDecoder(r.Body).Decode(&in)

	payload, err := h.service.GenerateImage(r.Context(), in.Prompt)
	if err != nil {
		status, message := statusFor(err)
		log.FromContextOrDiscard(r.Context()).WithGroup("proxy").Error("image generation failed", "status", status, "err", err)
		writeJSON(w, status, errorBody{Error: message})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
