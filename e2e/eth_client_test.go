//go:build e2e

package e2e

import (
	"context"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/boostify/btf2300-sdk-go/pkg/config"
	"github.com/boostify/btf2300-sdk-go/pkg/sdk"
)

func newClient(t *testing.T) *sdk.Client {
	t.Helper()
	rpc := os.Getenv("POLYGON_RPC_URL")
	if rpc == "" {
		t.Skip("POLYGON_RPC_URL not set")
	}
	cli, err := sdk.New(&config.Config{Network: config.Polygon, Endpoints: []string{rpc}})
	if err != nil {
		t.Fatalf("sdk.New error: %v", err)
	}
	t.Cleanup(cli.Close)
	return cli
}

func TestPolygonChainID(t *testing.T) {
	cli := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	id, err := cli.ChainID(ctx)
	if err != nil {
		t.Fatalf("ChainID error: %v", err)
	}
	if id != config.Polygon.ChainID {
		t.Fatalf("unexpected chain id %d", id)
	}
}

func TestPolygonReads(t *testing.T) {
	cli := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	counts := cli.GetTokenCounts(ctx)
	if !counts.OK() {
		t.Fatalf("GetTokenCounts: %s: %v", counts.Status, counts.Err)
	}
	if counts.Value.Songs.Sign() == 0 {
		t.Skip("no songs minted")
	}
	song := cli.GetSong(ctx, big.NewInt(1))
	if song.Status == blockchain.StatusUnavailable {
		t.Fatalf("GetSong: %v", song.Err)
	}
	if h := cli.Health(ctx); !h.OK {
		t.Fatalf("unhealthy: %s", h.Error)
	}
}
