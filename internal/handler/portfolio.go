package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/efreitasn/portfoliosim/internal/domain"
	"github.com/efreitasn/portfoliosim/internal/service"
	"github.com/shopspring/decimal"
)

// PortfolioHandler handles HTTP requests for portfolio endpoints.
type PortfolioHandler struct {
	session *service.Session
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(session *service.Session) *PortfolioHandler {
	return &PortfolioHandler{session: session}
}

// tradeRequest is the JSON request body for POST /portfolio/buy and
// POST /portfolio/sell.
type tradeRequest struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

// tradeResponse is the receipt returned for an executed trade.
type tradeResponse struct {
	TradeID    string          `json:"trade_id"`
	Side       string          `json:"side"`
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"quantity"`
	Total      decimal.Decimal `json:"total"`
	Cash       decimal.Decimal `json:"cash_after"`
	ExecutedAt string          `json:"executed_at"`
}

// positionResponse is a single line of the portfolio response.
type positionResponse struct {
	Symbol   string           `json:"symbol"`
	Name     string           `json:"name,omitempty"`
	Kind     string           `json:"kind,omitempty"`
	Quantity int64            `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
	Value    decimal.Decimal  `json:"value"`
}

// portfolioResponse is the JSON response for GET /portfolio.
type portfolioResponse struct {
	PortfolioID string             `json:"portfolio_id"`
	Currency    string             `json:"currency"`
	Cash        decimal.Decimal    `json:"cash"`
	AssetsValue decimal.Decimal    `json:"assets_value"`
	TotalValue  decimal.Decimal    `json:"total_value"`
	Positions   []positionResponse `json:"positions"`
}

// Get handles GET /portfolio.
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, toPortfolioResponse(h.session.Summary()))
}

// Buy handles POST /portfolio/buy.
func (h *PortfolioHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.session.Buy)
}

// Sell handles POST /portfolio/sell.
func (h *PortfolioHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.session.Sell)
}

func (h *PortfolioHandler) trade(
	w http.ResponseWriter,
	r *http.Request,
	execute func(symbol string, quantity int64) (*domain.Trade, error),
) {
	var req tradeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "symbol is required")
		return
	}

	trade, err := execute(req.Symbol, req.Quantity)
	if err != nil {
		mapSessionError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tradeResponse{
		TradeID:    trade.TradeID,
		Side:       string(trade.Side),
		Symbol:     trade.Symbol,
		Price:      trade.Price,
		Quantity:   trade.Quantity,
		Total:      trade.Total,
		Cash:       h.session.Summary().Cash,
		ExecutedAt: trade.ExecutedAt.UTC().Format(time.RFC3339Nano),
	})
}

// Save handles POST /portfolio/save.
func (h *PortfolioHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Save(r.Context()); err != nil {
		mapSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func toPortfolioResponse(s service.Summary) portfolioResponse {
	resp := portfolioResponse{
		PortfolioID: s.PortfolioID,
		Currency:    s.Currency,
		Cash:        s.Cash,
		AssetsValue: s.AssetsValue,
		TotalValue:  s.TotalValue,
		Positions:   make([]positionResponse, len(s.Positions)),
	}
	for i, p := range s.Positions {
		line := positionResponse{
			Symbol:   p.Symbol,
			Name:     p.Name,
			Kind:     string(p.Kind),
			Quantity: p.Quantity,
			Value:    p.Value,
		}
		if p.Priced {
			price := p.Price
			line.Price = &price
		}
		resp.Positions[i] = line
	}
	return resp
}

// mapSessionError maps session and domain errors to HTTP responses.
func mapSessionError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteError(w, http.StatusBadRequest, "validation_error", ve.Message)
	case errors.Is(err, domain.ErrAssetNotFound):
		WriteError(w, http.StatusNotFound, "asset_not_found", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error())
	case errors.Is(err, domain.ErrInsufficientAssets):
		WriteError(w, http.StatusUnprocessableEntity, "insufficient_assets", err.Error())
	case errors.Is(err, domain.ErrPersistence):
		WriteError(w, http.StatusInternalServerError, "persistence_failure", "Portfolio could not be saved")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
