package model

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestSongRecord_CloneDoesNotAlias(t *testing.T) {
	orig := SongRecord{
		TokenID:       big.NewInt(2_000_000_001),
		PricePerToken: big.NewInt(100),
	}
	c := orig.Clone()
	c.PricePerToken.SetInt64(1)
	c.TokenID.SetInt64(0)

	if orig.PricePerToken.Int64() != 100 {
		t.Fatalf("clone aliased PricePerToken: %v", orig.PricePerToken)
	}
	if orig.TokenID.Int64() != 2_000_000_001 {
		t.Fatalf("clone aliased TokenID: %v", orig.TokenID)
	}
	if c.TotalSupply != nil {
		t.Fatalf("nil fields must stay nil")
	}
}

func TestPoolRecord_Initialized(t *testing.T) {
	tests := []struct {
		name string
		pool PoolRecord
		want bool
	}{
		{name: "zero value", pool: PoolRecord{}, want: false},
		{name: "empty reserves inactive", pool: PoolRecord{TokenReserve: big.NewInt(0), BaseReserve: big.NewInt(0)}, want: false},
		{name: "active", pool: PoolRecord{Active: true}, want: true},
		{name: "drained but reserves left", pool: PoolRecord{TokenReserve: big.NewInt(5)}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pool.Initialized(); got != tt.want {
				t.Fatalf("Initialized() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailed(t *testing.T) {
	r := Failed("", "boom")
	if r.Success || r.ID != FailedTxID || r.ErrorMessage != "boom" {
		t.Fatalf("unexpected result %#v", r)
	}
	r = Failed("0xabc", "transaction reverted")
	if r.ID != "0xabc" {
		t.Fatalf("id = %s", r.ID)
	}
}

func TestTransactionResult_RevertedJSONRoundTrip(t *testing.T) {
	r := Failed("0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060", "transaction reverted")
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"success":false,"id":"0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060","errorMessage":"transaction reverted"}`
	if string(data) != want {
		t.Fatalf("encoded %s, want %s", data, want)
	}
	var back TransactionResult
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != r {
		t.Fatalf("round trip changed result: %#v != %#v", back, r)
	}
}

func TestTokenMetadata_CloneDoesNotAlias(t *testing.T) {
	orig := TokenMetadata{Name: "Night Drive", Attributes: []Attribute{{TraitType: "genre", Value: "ambient"}}}
	c := orig.Clone()
	c.Attributes[0].Value = "techno"
	c.Attributes = append(c.Attributes, Attribute{TraitType: "bpm", Value: 120})

	if orig.Attributes[0].Value != "ambient" || len(orig.Attributes) != 1 {
		t.Fatalf("clone aliased Attributes: %#v", orig.Attributes)
	}
	if (TokenMetadata{}).Clone().Attributes != nil {
		t.Fatal("nil attributes must stay nil")
	}
}

func TestTokenMetadata_Trait(t *testing.T) {
	m := TokenMetadata{Attributes: []Attribute{{TraitType: "genre", Value: "ambient"}}}
	v, ok := m.Trait("genre")
	if !ok || v != "ambient" {
		t.Fatalf("Trait(genre) = %v, %v", v, ok)
	}
	if _, ok := m.Trait("bpm"); ok {
		t.Fatal("unexpected trait")
	}
}
