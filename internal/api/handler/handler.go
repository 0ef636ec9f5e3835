// Package handler implements the routes of the read API.
package handler

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/boostify/btf2300-sdk-go/pkg/model"
	"github.com/boostify/btf2300-sdk-go/pkg/rpcpool"
	"github.com/boostify/btf2300-sdk-go/pkg/sdk"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reader is the part of *sdk.Client the API serves.
type Reader interface {
	Health(ctx context.Context) sdk.Health
	Endpoints() []rpcpool.Status
	GetArtistProfile(ctx context.Context, artistID *big.Int) blockchain.Result[sdk.ArtistProfile]
	GetArtistCatalog(ctx context.Context, artistID *big.Int) blockchain.Result[[]model.SongRecord]
	GetSongMetadata(ctx context.Context, id *big.Int) blockchain.Result[sdk.SongDetails]
	GetPoolInfo(ctx context.Context, tokenID *big.Int) blockchain.Result[model.PoolRecord]
	QuoteBuy(ctx context.Context, tokenID, baseIn *big.Int) blockchain.Result[sdk.Quote]
	QuoteSell(ctx context.Context, tokenID, tokenIn *big.Int) blockchain.Result[sdk.Quote]
	GetBalance(ctx context.Context, tokenID *big.Int, holder common.Address) blockchain.Result[*big.Int]
	GetLPBalance(ctx context.Context, tokenID *big.Int, provider common.Address) blockchain.Result[*big.Int]
	GetClaimableRoyalties(ctx context.Context, tokenID *big.Int, holder common.Address) blockchain.Result[decimal.Decimal]
	GetTokenCounts(ctx context.Context) blockchain.Result[model.TokenCounts]
}

// Handler holds the dependencies for API handlers
type Handler struct {
	Reader  Reader
	Metrics http.Handler
	Logger  *zap.Logger
}

// NewHandler creates a new Handler instance. A nil metrics handler leaves
// /metrics unrouted.
func NewHandler(reader Reader, metrics http.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		Reader:  reader,
		Metrics: metrics,
		Logger:  logger,
	}
}

// NewRouter creates and configures the HTTP router with all API routes
func (h *Handler) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", h.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/endpoints", h.HandleEndpoints).Methods(http.MethodGet)
	r.HandleFunc("/api/counts", h.HandleCounts).Methods(http.MethodGet)

	r.HandleFunc("/api/artists/{id}", h.HandleArtist).Methods(http.MethodGet)
	r.HandleFunc("/api/artists/{id}/songs", h.HandleArtistSongs).Methods(http.MethodGet)
	r.HandleFunc("/api/songs/{id}", h.HandleSong).Methods(http.MethodGet)

	r.HandleFunc("/api/pools/{tokenId}", h.HandlePool).Methods(http.MethodGet)
	r.HandleFunc("/api/pools/{tokenId}/quote", h.HandleQuote).Methods(http.MethodGet)

	r.HandleFunc("/api/balances/{tokenId}/{address}", h.HandleBalance).Methods(http.MethodGet)
	r.HandleFunc("/api/royalties/{tokenId}/{address}", h.HandleRoyalties).Methods(http.MethodGet)

	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods(http.MethodGet)
	}

	return r
}

// HandleHealth reports the client's view of the chain. It answers 503 when
// the chain is unreachable or serves another network.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.Reader.Health(r.Context())
	code := http.StatusOK
	if !health.OK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

// HandleEndpoints returns the current endpoint ranking.
func (h *Handler) HandleEndpoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Reader.Endpoints())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeResult maps a read status to an HTTP status: OK is 200, Empty is 404
// and Unavailable is 503.
func writeResult[T any](h *Handler, w http.ResponseWriter, r *http.Request, res blockchain.Result[T]) {
	switch res.Status {
	case blockchain.StatusOK:
		writeJSON(w, http.StatusOK, res.Value)
	case blockchain.StatusEmpty:
		writeError(w, http.StatusNotFound, "not found")
	default:
		h.Logger.Warn("read unavailable", zap.String("path", r.URL.Path), zap.Error(res.Err))
		msg := "chain unavailable"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		writeError(w, http.StatusServiceUnavailable, msg)
	}
}
