// Command devserver runs the paybridge reference backend: the HTTP surface
// the client library calls for gateway detection, Braintree client tokens
// and Stripe payment methods and checkout sessions.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/paybridge/paybridge/handler"
	"github.com/paybridge/paybridge/infra/config"
	"github.com/paybridge/paybridge/infra/logger"
	"github.com/paybridge/paybridge/infra/middle"
	"github.com/paybridge/paybridge/infra/opensearch"
)

func main() {
	config.LoadEnv()

	osCfg := opensearch.ConfigFromEnv()
	var osClient *opensearch.Client
	if osCfg.Enabled {
		client, err := opensearch.NewClient(osCfg)
		if err != nil {
			log.Printf("Failed to initialize OpenSearch client: %v", err)
			log.Println("Continuing without OpenSearch logging...")
		} else {
			osClient = client
		}
	}
	logger.InitGlobalLogger(osClient)

	port := config.GetEnv("DEVSERVER_PORT", "9999")
	h := handler.New(handler.ConfigFromEnv())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middle.RequestLogging(logger.GetGlobalLogger()))
	h.Routes(r)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("devserver listening", logger.LogContext{
			Fields: map[string]any{"port": port},
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
}
