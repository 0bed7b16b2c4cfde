package serve

import (
	"context"
	"net/http"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/forgewasm/wasm-forge/errors"
)

// DefaultAddr is the development server's default listen address.
const DefaultAddr = "127.0.0.1:8080"

// Server serves the artifact output directory over HTTP for local preview.
type Server struct {
	// Dir is the directory to serve.
	Dir string
	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string
}

// Handler returns the server's HTTP handler. Responses are marked no-store
// so a rebuilt artifact is always re-fetched, and .wasm files get the MIME
// type browsers require for streaming instantiation.
func (s *Server) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.Dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		if path.Ext(r.URL.Path) == ".wasm" {
			w.Header().Set("Content-Type", "application/wasm")
		}
		files.ServeHTTP(w, r)
	})
}

// ListenAndServe runs the server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	Logger().Info("serving artifacts",
		zap.String("dir", s.Dir),
		zap.String("addr", addr))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.IO(errors.PhaseServe, "listen on "+addr, err)
	}
	return nil
}
