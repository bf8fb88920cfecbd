package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"namemart/internal/market"
	"namemart/internal/settlement"
	"namemart/internal/transport/http/shared"
	id "namemart/pkg/domain"
	dErrors "namemart/pkg/domain-errors"
	"namemart/pkg/requestcontext"
)

// MarketService is the slice of the market service the HTTP layer drives.
type MarketService interface {
	List(ctx context.Context, caller id.Address, name string, price, reserve id.Amount, startReferrer id.Address) error
	Cancel(ctx context.Context, caller id.Address, name string) error
	Buy(ctx context.Context, caller id.Address, name string, amount id.Amount, bidReferrer id.Address) (settlement.Outcome, error)
	Bid(ctx context.Context, caller id.Address, name string, amount id.Amount, bidReferrer id.Address) error
	Finish(ctx context.Context, name string) (settlement.Outcome, error)
	Sale(ctx context.Context, name string) (*market.Sale, error)
}

// MarketHandler exposes the listing, bidding and settlement endpoints.
type MarketHandler struct {
	market MarketService
	logger *slog.Logger
}

func NewMarketHandler(market MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{market: market, logger: logger}
}

// Register mounts the market routes. Reads are open; mutations require an
// authenticated caller except finish, which anyone may trigger.
func (h *MarketHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/market/sales/{name}", h.handleGetSale)
	r.With(requireAuth).Post("/market/sales/{name}", h.handleList)
	r.With(requireAuth).Delete("/market/sales/{name}", h.handleCancel)
	r.With(requireAuth).Post("/market/sales/{name}/buy", h.handleBuy)
	r.With(requireAuth).Post("/market/sales/{name}/bids", h.handleBid)
	// Finish needs a caller only for accountability; the operation itself is
	// permissionless.
	r.With(requireAuth).Post("/market/sales/{name}/finish", h.handleFinish)
}

type listRequest struct {
	Price    id.Amount `json:"price"`
	Reserve  id.Amount `json:"reserve"`
	Referrer string    `json:"start_referrer,omitempty"`
}

type paymentRequest struct {
	Amount   id.Amount `json:"amount"`
	Referrer string    `json:"bid_referrer,omitempty"`
}

type shareResponse struct {
	Account  string `json:"account"`
	Amount   uint64 `json:"amount"`
	Escrowed bool   `json:"escrowed,omitempty"`
}

type outcomeResponse struct {
	Seller        shareResponse  `json:"seller"`
	StartReferrer *shareResponse `json:"start_referrer,omitempty"`
	BidReferrer   *shareResponse `json:"bid_referrer,omitempty"`
	Remainder     uint64         `json:"remainder"`
}

type saleResponse struct {
	Name           string     `json:"name"`
	Price          uint64     `json:"price"`
	Reserve        uint64     `json:"reserve"`
	MinimumBid     uint64     `json:"minimum_bid"`
	AuctionStarted bool       `json:"auction_started"`
	LastBid        uint64     `json:"last_bid,omitempty"`
	LastBidder     string     `json:"last_bidder,omitempty"`
	AuctionEnds    *time.Time `json:"auction_ends,omitempty"`
}

func (h *MarketHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	referrer, err := id.ParseOptionalAddress(req.Referrer)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid referrer address"))
		return
	}

	if err := h.market.List(ctx, caller, chi.URLParam(r, "name"), req.Price, req.Reserve, referrer); err != nil {
		h.logWarn(ctx, "list rejected", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.market.Cancel(ctx, requestcontext.Caller(ctx), chi.URLParam(r, "name")); err != nil {
		h.logWarn(ctx, "cancel rejected", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketHandler) handleBuy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, referrer, ok := h.decodePayment(w, r)
	if !ok {
		return
	}
	outcome, err := h.market.Buy(ctx, requestcontext.Caller(ctx), chi.URLParam(r, "name"), req.Amount, referrer)
	if err != nil {
		h.logWarn(ctx, "buy rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

func (h *MarketHandler) handleBid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, referrer, ok := h.decodePayment(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if err := h.market.Bid(ctx, requestcontext.Caller(ctx), name, req.Amount, referrer); err != nil {
		h.logWarn(ctx, "bid rejected", err)
		shared.WriteError(w, err)
		return
	}

	sale, err := h.market.Sale(ctx, name)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"amount":       uint64(sale.LastBid),
		"auction_ends": sale.AuctionEnds,
	})
}

func (h *MarketHandler) handleFinish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	outcome, err := h.market.Finish(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.logWarn(ctx, "finish rejected", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

func (h *MarketHandler) handleGetSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sale, err := h.market.Sale(ctx, chi.URLParam(r, "name"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp := saleResponse{
		Name:           sale.Name,
		Price:          uint64(sale.Price),
		Reserve:        uint64(sale.Reserve),
		MinimumBid:     uint64(market.MinimumBid(sale)),
		AuctionStarted: sale.HasBid(),
		LastBid:        uint64(sale.LastBid),
		LastBidder:     sale.LastBidder.String(),
	}
	if sale.HasBid() {
		ends := sale.AuctionEnds
		resp.AuctionEnds = &ends
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *MarketHandler) decodePayment(w http.ResponseWriter, r *http.Request) (paymentRequest, id.Address, bool) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return req, id.ZeroAddress, false
	}
	referrer, err := id.ParseOptionalAddress(req.Referrer)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid referrer address"))
		return req, id.ZeroAddress, false
	}
	return req, referrer, true
}

func toOutcomeResponse(outcome settlement.Outcome) outcomeResponse {
	resp := outcomeResponse{
		Seller:    toShareResponse(outcome.Seller),
		Remainder: uint64(outcome.Remainder),
	}
	if !outcome.StartReferrer.Account.IsZero() {
		share := toShareResponse(outcome.StartReferrer)
		resp.StartReferrer = &share
	}
	if !outcome.BidReferrer.Account.IsZero() {
		share := toShareResponse(outcome.BidReferrer)
		resp.BidReferrer = &share
	}
	return resp
}

func toShareResponse(share settlement.Share) shareResponse {
	return shareResponse{
		Account:  share.Account.String(),
		Amount:   uint64(share.Amount),
		Escrowed: share.Escrowed,
	}
}

func (h *MarketHandler) logWarn(ctx context.Context, message string, err error) {
	h.logger.WarnContext(ctx, message,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}
