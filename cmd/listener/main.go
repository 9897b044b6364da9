// Command listener is a small webhook receiver for exercising the service
// locally. Point callbacks at http://localhost:8092/webhook-receiver.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inancsarica/boom-guru/internal/config"
)

func main() {
	port := flag.Int("port", 8092, "listen port")
	flag.Parse()

	if err := config.InitLogger("info", "console"); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer zap.L().Sync() //nolint:errcheck

	r := chi.NewRouter()
	r.Post("/webhook-receiver", func(w http.ResponseWriter, req *http.Request) {
		var data map[string]any
		if err := json.NewDecoder(req.Body).Decode(&data); err != nil {
			zap.L().Warn("webhook with invalid body", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		zap.L().Info("webhook received",
			zap.Any("payload", data),
			zap.String("api_key", req.Header.Get("Boom724ExternalApiKey")),
		)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Webhook received successfully."}) //nolint:errcheck
	})

	addr := fmt.Sprintf(":%d", *port)
	zap.L().Info("listener waiting for callbacks", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		zap.L().Fatal("listener error", zap.Error(err))
	}
}
