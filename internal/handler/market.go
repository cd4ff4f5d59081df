package handler

import (
	"net/http"

	"github.com/efreitasn/portfoliosim/internal/domain"
	"github.com/efreitasn/portfoliosim/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// AssetHandler serves the market listing and price stepping.
type AssetHandler struct {
	session *service.Session
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(session *service.Session) *AssetHandler {
	return &AssetHandler{session: session}
}

// assetResponse is a single listed asset.
type assetResponse struct {
	Symbol     string           `json:"symbol"`
	Name       string           `json:"name"`
	Kind       string           `json:"kind"`
	Price      decimal.Decimal  `json:"price"`
	AnnualRate *decimal.Decimal `json:"annual_rate,omitempty"`
}

// assetListResponse is the JSON response for GET /assets.
type assetListResponse struct {
	Assets []assetResponse `json:"assets"`
	Total  int             `json:"total"`
}

// List handles GET /assets.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, listResponse(h.session.Assets()))
}

// Get handles GET /assets/{symbol}.
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	a, err := h.session.Asset(symbol)
	if err != nil {
		mapSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toAssetResponse(a))
}

// Step handles POST /market/step. It advances every price once and returns
// the new listing.
func (h *AssetHandler) Step(w http.ResponseWriter, r *http.Request) {
	h.session.Step()
	WriteJSON(w, http.StatusOK, listResponse(h.session.Assets()))
}

func listResponse(views []service.AssetView) assetListResponse {
	resp := assetListResponse{
		Assets: make([]assetResponse, len(views)),
		Total:  len(views),
	}
	for i, v := range views {
		resp.Assets[i] = toAssetResponse(v)
	}
	return resp
}

func toAssetResponse(v service.AssetView) assetResponse {
	resp := assetResponse{
		Symbol: v.Symbol,
		Name:   v.Name,
		Kind:   string(v.Kind),
		Price:  v.Price,
	}
	if v.Kind == domain.AssetKindFixedIncome {
		rate := v.AnnualRate
		resp.AnnualRate = &rate
	}
	return resp
}
