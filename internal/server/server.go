package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/briefspark/briefspark/internal/log"
	"github.com/briefspark/briefspark/internal/page"
	"github.com/briefspark/briefspark/internal/session"
	"github.com/google/uuid"
	"github.com/samber/do"
)

const sessionCookie = "briefspark_session"

// Server is the studio's HTTP surface: the page itself plus the JSON action
// API backing it. State is per-session and in-memory only.
type Server struct {
	registry  *session.Registry
	templator *page.Templator
}

func NewServer(i *do.Injector) (*Server, error) {
	return &Server{
		registry:  do.MustInvoke[*session.Registry](i),
		templator: do.MustInvoke[*page.Templator](i),
	}, nil
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.index)
	mux.HandleFunc("/api/ideas", s.ideas)
	mux.HandleFunc("/api/visualize", s.visualize)
	mux.HandleFunc("/api/dismiss-error", s.dismissError)
	return mux
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	html, err := s.templator.Template(r.Context(), page.Params{Title: "BriefSpark"})
	if err != nil {
		log.FromContextOrDiscard(r.Context()).Error("rendering page", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (s *Server) ideas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var in struct {
		Brief      string  `json:"brief"`
		Creativity float64 `json:"creativity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := s.manager(w, r).GenerateIdeas(r.Context(), in.Brief, in.Creativity)
	s.writeState(w, st, err)
}

func (s *Server) visualize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var in struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := s.manager(w, r).Visualize(r.Context(), in.ID)
	s.writeState(w, st, err)
}

func (s *Server) dismissError(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.manager(w, r).DismissError())
}

// manager resolves the caller's session, minting a cookie on first contact.
func (s *Server) manager(w http.ResponseWriter, r *http.Request) *session.Manager {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return s.registry.Get(c.Value)
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.registry.Get(id)
}

// writeState reports busy as a conflict; everything else, including recorded
// validation and provider errors, rides inside the state so the page can show
// it without losing content.
func (s *Server) writeState(w http.ResponseWriter, st session.State, err error) {
	if errors.Is(err, session.ErrBusy) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
