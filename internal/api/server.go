// Package api serves a read-only HTTP view of fan inventory and recorded
// faults.
package api

import (
	"context"
	"net/http"
	"time"

	"codeberg.org/mutker/fanmon/internal/errors"
	"codeberg.org/mutker/fanmon/internal/faultlog"
	"codeberg.org/mutker/fanmon/internal/inventory"
	"codeberg.org/mutker/fanmon/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

const (
	headerRequestID  = "X-Request-ID"
	shutdownTimeout  = 3 * time.Second
	readHeaderTimout = 5 * time.Second
)

// InventoryReader exposes inventory state.
type InventoryReader interface {
	Snapshot() []inventory.Item
	Get(path string) (inventory.Item, bool)
}

// FaultLister exposes recorded faults, newest first.
type FaultLister interface {
	List(ctx context.Context, limit int) ([]faultlog.Fault, error)
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(inv InventoryReader, faults FaultLister) *gin.Engine {
	log := logger.Component("api")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Accept", "Content-Type", headerRequestID},
		ExposeHeaders: []string{"Content-Length", headerRequestID},
	}))
	router.Use(requestID(), requestLogging(log), gzip.Gzip(gzip.DefaultCompression))
	router.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, ErrNotFound, "unknown API path")
	})

	h := &handlers{inventory: inv, faults: faults}
	router.GET("/healthz", h.health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/inventory", h.listInventory)
		v1.GET("/inventory/*path", h.getInventory)
		v1.GET("/faults", h.listFaults)
	}

	return router
}

// Serve runs an HTTP server on addr until ctx is done, then shuts it down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	log := logger.Component("api")

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	log.Info().Str("addr", addr).Msg("Status API listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Graceful stop timed out, forcing shutdown")
			_ = srv.Close()
		}
		return nil
	case err := <-errCh:
		return errors.New().Wrap(ErrServeFailed, err)
	}
}
