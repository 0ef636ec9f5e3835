package handler

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// HandleCounts returns the number of minted ids per namespace.
func (h *Handler) HandleCounts(w http.ResponseWriter, r *http.Request) {
	writeResult(h, w, r, h.Reader.GetTokenCounts(r.Context()))
}

// HandleArtist returns the artist record and its profile document.
func (h *Handler) HandleArtist(w http.ResponseWriter, r *http.Request) {
	id, ok := bigVar(w, r, "id")
	if !ok {
		return
	}
	writeResult(h, w, r, h.Reader.GetArtistProfile(r.Context(), id))
}

// HandleArtistSongs returns every song of the artist.
func (h *Handler) HandleArtistSongs(w http.ResponseWriter, r *http.Request) {
	id, ok := bigVar(w, r, "id")
	if !ok {
		return
	}
	writeResult(h, w, r, h.Reader.GetArtistCatalog(r.Context(), id))
}

// HandleSong accepts a song index or a full song token id.
func (h *Handler) HandleSong(w http.ResponseWriter, r *http.Request) {
	id, ok := bigVar(w, r, "id")
	if !ok {
		return
	}
	writeResult(h, w, r, h.Reader.GetSongMetadata(r.Context(), id))
}

func (h *Handler) HandlePool(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := bigVar(w, r, "tokenId")
	if !ok {
		return
	}
	writeResult(h, w, r, h.Reader.GetPoolInfo(r.Context(), tokenID))
}

// HandleQuote estimates a swap. Query param: ?base=<amount in base
// currency> for a buy, or ?tokens=<token amount> for a sell.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := bigVar(w, r, "tokenId")
	if !ok {
		return
	}
	q := r.URL.Query()
	base, tokens := q.Get("base"), q.Get("tokens")

	switch {
	case base != "" && tokens != "":
		writeError(w, http.StatusBadRequest, "pass either base or tokens, not both")
	case base != "":
		amount, err := blockchain.ToBaseUnits(base)
		if err != nil || amount.Sign() <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid base amount %q", base))
			return
		}
		writeResult(h, w, r, h.Reader.QuoteBuy(r.Context(), tokenID, amount))
	case tokens != "":
		amount, ok := new(big.Int).SetString(tokens, 10)
		if !ok || amount.Sign() <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid token amount %q", tokens))
			return
		}
		writeResult(h, w, r, h.Reader.QuoteSell(r.Context(), tokenID, amount))
	default:
		writeError(w, http.StatusBadRequest, "base or tokens is required")
	}
}

type balanceResponse struct {
	TokenID   *big.Int       `json:"tokenId"`
	Address   common.Address `json:"address"`
	Balance   *big.Int       `json:"balance"`
	LPBalance *big.Int       `json:"lpBalance"`
}

// HandleBalance returns the token and LP balances of an address. The LP
// balance is omitted when it cannot be read.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	tokenID, addr, ok := holderVars(w, r)
	if !ok {
		return
	}
	bal := h.Reader.GetBalance(r.Context(), tokenID, addr)
	if !bal.OK() {
		writeResult(h, w, r, bal)
		return
	}
	resp := balanceResponse{TokenID: tokenID, Address: addr, Balance: bal.Value}
	if lp := h.Reader.GetLPBalance(r.Context(), tokenID, addr); lp.OK() {
		resp.LPBalance = lp.Value
	}
	writeJSON(w, http.StatusOK, resp)
}

type royaltiesResponse struct {
	TokenID   *big.Int        `json:"tokenId"`
	Address   common.Address  `json:"address"`
	Claimable decimal.Decimal `json:"claimable"`
}

// HandleRoyalties returns the royalties an address can claim, in base
// currency.
func (h *Handler) HandleRoyalties(w http.ResponseWriter, r *http.Request) {
	tokenID, addr, ok := holderVars(w, r)
	if !ok {
		return
	}
	res := h.Reader.GetClaimableRoyalties(r.Context(), tokenID, addr)
	if !res.OK() {
		writeResult(h, w, r, res)
		return
	}
	writeJSON(w, http.StatusOK, royaltiesResponse{TokenID: tokenID, Address: addr, Claimable: res.Value})
}

func bigVar(w http.ResponseWriter, r *http.Request, name string) (*big.Int, bool) {
	raw := mux.Vars(r)[name]
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, raw))
		return nil, false
	}
	return v, true
}

func holderVars(w http.ResponseWriter, r *http.Request) (*big.Int, common.Address, bool) {
	tokenID, ok := bigVar(w, r, "tokenId")
	if !ok {
		return nil, common.Address{}, false
	}
	raw := mux.Vars(r)["address"]
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid address %q", raw))
		return nil, common.Address{}, false
	}
	return tokenID, common.HexToAddress(raw), true
}
