// Package docinsight exposes the document insight API as a Cloud Function.
package docinsight

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/pep299/document-insight/internal/config"
	"github.com/pep299/document-insight/internal/handlers"
)

var (
	routerOnce sync.Once
	router     http.Handler
	routerErr  error
)

func init() {
	functions.HTTP("DocumentInsight", DocumentInsight)
}

func setupRouter(ctx context.Context) (http.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	server, err := handlers.NewServer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Function instances have no janitor, so sweep what a previous instance left
	if _, err := server.Uploads().Sweep(cfg.UploadMaxAge()); err != nil {
		log.Printf("Error sweeping uploads: %v", err)
	}

	return server.SetupRoutes(), nil
}

// DocumentInsight serves the /api/v1 routes. The router is built on the
// first request and reused by the instance.
func DocumentInsight(w http.ResponseWriter, r *http.Request) {
	routerOnce.Do(func() {
		router, routerErr = setupRouter(context.Background())
	})

	if routerErr != nil {
		logger := log.New(funcframework.LogWriter(r.Context()), "", 0)
		logger.Printf("Failed to create server: %v", routerErr)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	router.ServeHTTP(w, r)
}
