package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter serves Telegram updates on POST /{token} and a liveness probe on
// GET /healthz. Requests for any other token get 404.
func NewRouter(token string, onUpdate func(ctx context.Context, u tgbotapi.Update), logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.HandleFunc("/{token}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["token"] != token {
			http.NotFound(w, r)
			return
		}
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.Warn("bad webhook payload", zap.Error(err))
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		onUpdate(r.Context(), update)
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)
	return r
}
