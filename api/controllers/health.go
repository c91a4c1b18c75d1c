package controllers

import (
	"net/http"

	"github.com/delarosa-dev/shopdeck-backend/api/responses"
	"github.com/delarosa-dev/shopdeck-backend/pkg/config"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db"
	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
	"github.com/delarosa-dev/shopdeck-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShopDeck-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks every wired dependency before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers ...db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShopDeck-Env", cfg.App.Env)

		for _, pinger := range pingers {
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
