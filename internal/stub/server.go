// Package stub is a local stand-in for the registration endpoint. It accepts
// the same multipart body and answers with the same success and
// field-error shapes, keeping accounts in memory.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/mark3labs/signup/internal/form"
	"github.com/mark3labs/signup/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

// maxUploadMemory bounds multipart parsing held in memory.
const maxUploadMemory = 12 << 20

// maxRequestBytes caps a whole registration request body.
const maxRequestBytes = 32 << 20

// Account is a registered user.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	ContactNo    string    `json:"contact_no"`
	CreatedAt    time.Time `json:"created_at"`
	passwordHash []byte
	photoBytes   int64
	sigBytes     int64
}

// Server handles registration requests.
type Server struct {
	mu       sync.RWMutex
	accounts map[string]*Account // keyed by lowercased email
	byName   map[string]*Account // keyed by lowercased username
	router   chi.Router
	httpSrv  *http.Server
}

// New creates a server with an empty account store.
func New() *Server {
	s := &Server{
		accounts: make(map[string]*Account),
		byName:   make(map[string]*Account),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLog)
	r.Post("/api/register", s.handleRegister)
	r.Get("/api/accounts/{username}", s.handleGetAccount)
	s.router = r

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background.
// It returns the bound address (useful when addr ends in ":0").
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", addr, err)
	}

	s.httpSrv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Stub server stopped: %v", err)
		}
	}()

	logger.Info("Stub registration server listening on %s", ln.Addr())
	return ln.Addr().String(), nil
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Accounts returns the number of registered accounts.
func (s *Server) Accounts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// Lookup returns the account registered under username.
func (s *Server) Lookup(username string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byName[strings.ToLower(username)]
	return a, ok
}

// CheckPassword reports whether password matches the stored hash.
func (a *Account) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"message": "The request is too large."})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "expected a multipart/form-data body"})
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn("Removing multipart temp files failed: %v", err)
		}
	}()

	errs := make(form.FieldErrors)
	value := func(field string) string {
		return strings.TrimSpace(r.FormValue(field))
	}

	for _, field := range []string{
		form.FieldEmail, form.FieldUsername, form.FieldPassword,
		form.FieldFirstName, form.FieldLastName, form.FieldContactNo,
	} {
		if value(field) == "" {
			errs[field] = append(errs[field], fmt.Sprintf("The %s field is required.", humanize(field)))
		}
	}

	email := value(form.FieldEmail)
	if email != "" && !strings.Contains(email, "@") {
		errs[form.FieldEmail] = append(errs[form.FieldEmail], "The email must be a valid email address.")
	}

	password := r.FormValue(form.FieldPassword)
	if password != "" && password != r.FormValue(form.FieldPasswordConfirmation) {
		errs[form.FieldPassword] = append(errs[form.FieldPassword], "The password confirmation does not match.")
	}

	sizes := make(map[string]int64, 2)
	for _, field := range []string{form.FieldPhoto, form.FieldSignaturePhoto} {
		size, problem := imagePart(r, field)
		if problem != "" {
			errs[field] = append(errs[field], problem)
			continue
		}
		sizes[field] = size
	}

	username := value(form.FieldUsername)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.accounts[strings.ToLower(email)]; email != "" && taken {
		errs[form.FieldEmail] = append(errs[form.FieldEmail], "The email has already been taken.")
	}
	if _, taken := s.byName[strings.ToLower(username)]; username != "" && taken {
		errs[form.FieldUsername] = append(errs[form.FieldUsername], "The username has already been taken.")
	}

	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": firstMessage(errs),
			"errors":  errs,
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Hashing password failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server Error"})
		return
	}

	acct := &Account{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		FirstName:    value(form.FieldFirstName),
		LastName:     value(form.FieldLastName),
		ContactNo:    value(form.FieldContactNo),
		CreatedAt:    time.Now().UTC(),
		passwordHash: hash,
		photoBytes:   sizes[form.FieldPhoto],
		sigBytes:     sizes[form.FieldSignaturePhoto],
	}
	s.accounts[strings.ToLower(email)] = acct
	s.byName[strings.ToLower(username)] = acct

	logger.Info("Registered account %s (%s)", acct.Username, acct.ID)
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.Lookup(chi.URLParam(r, "username"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// imagePart checks that field holds an image file and returns its size,
// or the validation message to report for field.
func imagePart(r *http.Request, field string) (int64, string) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return 0, fmt.Sprintf("The %s field is required.", humanize(field))
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return 0, fmt.Sprintf("The %s must be an image.", humanize(field))
	}
	return hdr.Size, ""
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// firstMessage mirrors the summary message of a field-error response.
func firstMessage(errs form.FieldErrors) string {
	fields := errs.Fields()
	if len(fields) == 0 {
		return "The given data was invalid."
	}
	msg := errs.First(fields[0])
	if extra := len(fields) - 1; extra > 0 {
		msg = fmt.Sprintf("%s (and %d more error", msg, extra)
		if extra > 1 {
			msg += "s"
		}
		msg += ")"
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Writing response failed: %v", err)
	}
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond))
	})
}
