package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jholhewres/shellsage/pkg/shellsage/config"
	"github.com/jholhewres/shellsage/pkg/shellsage/history"
	"github.com/jholhewres/shellsage/pkg/shellsage/llmclient"
)

// Server accepts WebSocket connections on /session, one per operator
// conversation.
type Server struct {
	cfg      *config.Config
	llm      llmclient.Completer
	history  *history.Store
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer builds a Server. store may be nil (history disabled).
func NewServer(cfg *config.Config, llm llmclient.Completer, store *history.Store, logger *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		llm:     llm,
		history: store,
		logger:  logger.With("component", "transport_server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Accepting cross-origin upgrades is appropriate for a local
			// operator tool; tighten CheckOrigin if this is ever exposed
			// beyond localhost.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	session := newConnSession(conn, s.cfg, s.llm, s.history, s.logger)
	session.readLoop(r.Context())
}

// ListenAndServe mounts the server at /session and serves until ctx is
// canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/session", s)

	httpServer := &http.Server{
		Addr:              s.cfg.Transport.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("transport listening", "addr", s.cfg.Transport.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
