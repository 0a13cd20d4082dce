package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

type namedServer struct {
	name string
	srv  *http.Server
}

// servers lists the listeners owned by the app. The stream server carries
// NDJSON and SSE responses and has no write timeout.
func (a *App) servers() []namedServer {
	return []namedServer{
		{name: "http", srv: a.httpServer},
		{name: "stream", srv: a.streamServer},
	}
}

// Start launches the HTTP and stream servers and returns a channel closed on shutdown.
func (a *App) Start() <-chan struct{} {
	terminateChan := make(chan struct{})

	for _, s := range a.servers() {
		go func() {
			slog.Info(s.name+" server listening", "address", s.srv.Addr)

			if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				slog.Error("failed to listen and serve "+s.name+" server", "error", err)
				os.Exit(1)
			}
		}()
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigint)

		<-sigint

		if a.cancel != nil {
			a.cancel()
		}

		close(terminateChan)

		slog.Info("application gracefully shutdown")
	}()

	return terminateChan
}

// Serve runs the HTTP server on the provided listener for tests.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- a.httpServer.Serve(l)
		close(errChan)
	}()

	return errChan
}

// Stop gracefully shuts down the server and closes resources.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	// open campaign streams end on the cancelled base context, so Shutdown
	// does not wait them out
	for _, s := range a.servers() {
		if err := s.srv.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", s.name+" server", "error", err)
		}
	}

	slog.InfoContext(ctx, "waiting for all goroutine to finish")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	}
	slog.InfoContext(ctx, "all goroutines have finished successfully")

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
}
