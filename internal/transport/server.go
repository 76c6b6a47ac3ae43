package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// ShutdownTimeout bounds the graceful drain after the context is done.
const ShutdownTimeout = 30 * time.Second

// Serve runs srv on ln until ctx is done, then shuts it down gracefully.
// It returns nil after a clean shutdown.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, log *logrus.Entry) error {
	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"address": ln.Addr().String(),
			"timeout": srv.ReadTimeout,
		}).Info("starting HTTP server")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}
