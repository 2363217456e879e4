package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pharmwatch/pharmwatch-backend/api/responses"
	"github.com/pharmwatch/pharmwatch-backend/internal/query"
	pkgerrors "github.com/pharmwatch/pharmwatch-backend/pkg/errors"
	"github.com/pharmwatch/pharmwatch-backend/pkg/logger"
)

// SearchItems handles GET /api/v1/search?q=...&store_id=...&limit=...
func SearchItems(svc *query.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := intParam(r, "limit", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		hits, err := svc.Search(r.Context(), r.URL.Query().Get("q"), r.URL.Query().Get("store_id"), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, hits)
	}
}

// GetItem handles GET /api/v1/items/{barcode}?store_id=...
func GetItem(svc *query.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := svc.Item(r.Context(), chi.URLParam(r, "barcode"), r.URL.Query().Get("store_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// GetItemHistory handles GET /api/v1/items/{barcode}/history?store_id=...&days=...
func GetItemHistory(svc *query.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := intParam(r, "days", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		points, err := svc.History(r.Context(), chi.URLParam(r, "barcode"), r.URL.Query().Get("store_id"), days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, points)
	}
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, name+" must be an integer")
	}
	return value, nil
}
