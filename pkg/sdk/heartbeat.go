package sdk

import (
	"context"

	"github.com/boostify/btf2300-sdk-go/pkg/cache"
	"github.com/boostify/btf2300-sdk-go/pkg/rpcpool"
	"go.uber.org/zap"
)

// Health is a snapshot of the client's view of the chain.
type Health struct {
	OK              bool             `json:"ok"`
	ChainID         uint64           `json:"chainId"`
	ExpectedChainID uint64           `json:"expectedChainId"`
	Paused          bool             `json:"paused"`
	Endpoints       []rpcpool.Status `json:"endpoints"`
	Cache           cache.Stats      `json:"cache"`
	Error           string           `json:"error,omitempty"`
}

// Health asks the best endpoint for its chain id and whether the token
// contract is paused. OK is false when no endpoint answers or the node
// serves another chain.
func (c *Client) Health(ctx context.Context) Health {
	h := Health{ExpectedChainID: c.cfg.Network.ChainID}

	id, err := c.ChainID(ctx)
	switch {
	case err != nil:
		h.Error = err.Error()
	case id != h.ExpectedChainID:
		h.ChainID = id
		h.Error = "node serves a different chain"
	default:
		h.ChainID = id
		h.OK = true
		paused := c.IsPaused(ctx)
		h.Paused = paused.Value
		if !paused.OK() {
			zap.L().Warn("Health check could not read pause state", zap.Error(paused.Err))
		}
	}

	h.Endpoints = c.Endpoints()
	h.Cache = c.CacheStats()
	return h
}
