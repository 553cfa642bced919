// Package stub is an in-process stand-in for the auth API and webhook
// backend, for local development and tests. It is not a backend design.
package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/gorilla/mux"
)

const maxUpload = 25 << 20

// User is an account accepted by the stub.
type User struct {
	ID       int
	Username string
	Password string
}

// Server serves the login, chat and transcription endpoints.
type Server struct {
	users      map[string]User
	key        []byte
	tokenTTL   time.Duration
	reply      func(prompt string) string
	transcribe func(fileName, mimeType string, size int64) string
	logger     *slog.Logger
	now        func() time.Time

	mu    sync.Mutex
	calls map[string]int
}

// Option configures a [Server].
type Option func(*Server)

// WithUser adds an account.
func WithUser(u User) Option {
	return func(s *Server) { s.users[u.Username] = u }
}

// WithSigningKey sets the HMAC key for issued tokens.
func WithSigningKey(key []byte) Option {
	return func(s *Server) { s.key = key }
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithReply sets how chat prompts are answered.
func WithReply(fn func(prompt string) string) Option {
	return func(s *Server) { s.reply = fn }
}

// WithTranscript sets how uploads are transcribed.
func WithTranscript(fn func(fileName, mimeType string, size int64) string) Option {
	return func(s *Server) { s.transcribe = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the time source used for token issue and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New returns a stub server.
func New(opts ...Option) *Server {
	s := &Server{
		users:    map[string]User{},
		key:      []byte("voicechat-stub"),
		tokenTTL: time.Hour,
		reply:    func(p string) string { return "You said: " + p },
		transcribe: func(name, mime string, size int64) string {
			return fmt.Sprintf("transcript of %s (%s, %d bytes)", name, mime, size)
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		calls:  map[string]int{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the HTTP routes. The auth API is mounted under /api.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/login_check", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/webhook-test/cosap_chat", s.requireToken(s.handleChat)).Methods(http.MethodPost)
	r.HandleFunc("/webhook-test/whisper-transcription", s.requireToken(s.handleTranscribe)).Methods(http.MethodPost)
	r.Use(s.logRequests)
	return r
}

// Calls returns how many requests each route has served.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "elapsed", s.now().Sub(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"code": status, "message": msg})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}
	u, ok := s.users[req.Username]
	if !ok || u.Password != req.Password {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}
	now := s.now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": u.Username,
		"sub":      strconv.Itoa(u.ID),
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}).SignedString(s.key)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Could not issue token.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "id": u.ID})
}

// requireToken rejects requests without a valid bearer token or with an
// idUser header that does not match it.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeMessage(w, http.StatusUnauthorized, "JWT Token not found")
			return
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.key, nil
		})
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid JWT Token")
			return
		}
		if id := r.Header.Get("idUser"); id != "" && id != claims["sub"] {
			writeMessage(w, http.StatusForbidden, "User mismatch")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeMessage(w, http.StatusBadRequest, "must have required property 'prompt'")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"output": s.reply(req.Prompt)})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "must have required property 'file'")
		return
	}
	if r.FormValue("model") == "" {
		writeMessage(w, http.StatusBadRequest, "must have required property 'model'")
		return
	}
	f, fh, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "must have required property 'file'")
		return
	}
	defer f.Close()
	size, _ := io.Copy(io.Discard, f)
	text := s.transcribe(fh.Filename, fh.Header.Get("Content-Type"), size)
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}
