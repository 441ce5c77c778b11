package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/kazz187/jobflow/internal/server"
	"github.com/kazz187/jobflow/pkg/panicerr"
)

const shutdownTimeout = 10 * time.Second

func serve(ctx context.Context, d *deps) error {
	srv := server.NewServer(d.env, d.store, d.bus, d.journal)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(panicerr.SafeContext(func(ctx context.Context) error {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}))
	p.Go(panicerr.SafeContext(func(ctx context.Context) error {
		<-ctx.Done()
		slog.Info("shutting down server")

		// Streams end with ctx; give the remaining requests a moment.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		return nil
	}))
	return p.Wait()
}
