// Package handlers holds the status API's HTTP handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/internal/watermark"
	"github.com/seamark-project/backend/pkg/database"
	"github.com/seamark-project/backend/pkg/logger"
)

// StatusHandler serves read-only pipeline state.
type StatusHandler struct {
	assets contracts.AssetRepository
	prices contracts.PriceRepository
	marks  *watermark.Engine
	db     *database.DB
	logger *logger.Logger
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(
	assets contracts.AssetRepository,
	prices contracts.PriceRepository,
	marks *watermark.Engine,
	db *database.DB,
	log *logger.Logger,
) *StatusHandler {
	return &StatusHandler{
		assets: assets,
		prices: prices,
		marks:  marks,
		db:     db,
		logger: log,
	}
}

// ListAssets returns the tracked asset universe.
// GET /api/assets
func (h *StatusHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	assets, err := h.assets.List(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list assets")
		respondError(w, http.StatusInternalServerError, "Failed to list assets")
		return
	}

	respondJSON(w, http.StatusOK, assets)
}

// AssetStatus is one asset's derivation state snapshot.
type AssetStatus struct {
	Symbol         string   `json:"symbol"`
	LatestDate     string   `json:"latest_date,omitempty"`
	LatestPrice    *float64 `json:"latest_price,omitempty"`
	Believability  *float64 `json:"believability,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	WatermarkState string   `json:"watermark_state"`
}

// GetAssetStatus returns the asset's latest price record and watermark state.
// GET /api/assets/{symbol}/status
func (h *StatusHandler) GetAssetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := mux.Vars(r)["symbol"]

	asset, err := h.assets.GetBySymbol(ctx, symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to load asset")
		respondError(w, http.StatusInternalServerError, "Failed to load asset")
		return
	}
	if asset == nil {
		respondError(w, http.StatusNotFound, "Unknown asset")
		return
	}

	status := AssetStatus{Symbol: asset.Symbol}

	latest, err := h.prices.LatestByAsset(ctx, asset.ID)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to load latest price")
		respondError(w, http.StatusInternalServerError, "Failed to load latest price")
		return
	}
	if latest != nil {
		status.LatestDate = latest.Date.Format(contracts.DateFormat)
		status.LatestPrice = latest.Price
		status.Believability = latest.Believability
		status.Confidence = latest.Confidence
	}

	state, err := h.marks.StateOf(ctx, asset.ID)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to load watermark state")
		respondError(w, http.StatusInternalServerError, "Failed to load watermark state")
		return
	}
	status.WatermarkState = state.String()

	respondJSON(w, http.StatusOK, status)
}

// GetDatabaseHealth returns connection-pool health.
// GET /api/db/health
func (h *StatusHandler) GetDatabaseHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.db.HealthCheck(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Database health check failed")
		respondJSON(w, http.StatusServiceUnavailable, health)
		return
	}
	respondJSON(w, http.StatusOK, health)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
