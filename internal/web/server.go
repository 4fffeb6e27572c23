package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mpernat/vellum/internal/auth"
	"github.com/mpernat/vellum/internal/config"
	"github.com/mpernat/vellum/internal/document"
	"github.com/mpernat/vellum/internal/session"
	"github.com/mpernat/vellum/internal/vcs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the Vellum web UI.
func NewServer(docs *document.Store, guard *auth.Guard, sessions *session.Manager, cfg *config.Config, version string) *http.Server {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-FS: %v", err)
	}

	renderer := NewRenderer(templateSub, version)

	h := &Handlers{
		docs:      docs,
		guard:     guard,
		sessions:  sessions,
		committer: vcs.NewCommitter(docs.Root(), cfg.GitAutoCommit),
		renderer:  renderer,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("GET /documents/new", h.HandleNewForm)
	mux.HandleFunc("POST /documents", h.HandleCreate)
	mux.HandleFunc("GET /documents/{name}", h.HandleView)
	mux.HandleFunc("GET /documents/{name}/edit", h.HandleEditForm)
	mux.HandleFunc("POST /documents/{name}", h.HandleEdit)
	mux.HandleFunc("GET /documents/{name}/duplicate", h.HandleDuplicateForm)
	mux.HandleFunc("POST /documents/{name}/duplicate", h.HandleDuplicate)
	mux.HandleFunc("POST /documents/{name}/delete", h.HandleDelete)
	mux.HandleFunc("GET /signin", h.HandleSignInForm)
	mux.HandleFunc("POST /signin", h.HandleSignIn)
	mux.HandleFunc("POST /signout", h.HandleSignOut)
	mux.HandleFunc("GET /signup", h.HandleSignUpForm)
	mux.HandleFunc("POST /signup", h.HandleSignUp)

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	// Wrap with security headers
	handler := securityHeaders(mux)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler: handler,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("Vellum running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
