package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"worldforge/internal/logger"
)

// Serve exposes the hub at /feed on addr until ctx is cancelled. Connected
// clients are disconnected on the way out.
func Serve(ctx context.Context, addr string, hub *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/feed", hub.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	detach := hub.Attach()
	defer detach()

	errCh := make(chan error, 1)
	go func() {
		logger.Log.WithFields(logrus.Fields{"addr": addr}).Info("change feed listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving change feed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Shutdown does not track hijacked websocket connections.
		defer hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down change feed: %w", err)
		}
		return nil
	}
}
