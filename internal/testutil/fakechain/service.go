package fakechain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeFeeBps is the swap fee the fake DEX charges in its quotes.
const fakeFeeBps = 30

// ethService is registered under the "eth" namespace; go-ethereum maps
// GetTransactionReceipt to eth_getTransactionReceipt and so on.
type ethService struct{ c *Chain }

type txArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
	Value *hexutil.Big    `json:"value"`
}

func (a txArgs) data() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

func (s *ethService) ChainId() (hexutil.Uint64, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if err := s.c.count("eth_chainId"); err != nil {
		return 0, err
	}
	return hexutil.Uint64(s.c.chainID), nil
}

func (s *ethService) Call(args txArgs, block *string) (hexutil.Bytes, error) {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if args.To == nil {
		return nil, errors.New("missing to")
	}
	contract := c.contractAt(*args.To)
	if contract == nil {
		c.count("eth_call")
		return hexutil.Bytes{}, nil
	}
	data := args.data()
	if len(data) < 4 {
		return nil, errors.New("calldata too short")
	}
	method, err := contract.MethodById(data[:4])
	if err != nil {
		return nil, &RevertError{Reason: "unknown selector"}
	}
	if err := c.count("eth_call", "eth_call:"+method.Name); err != nil {
		return nil, err
	}
	in, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method.Name, err)
	}
	out, err := c.answer(method.Name, in)
	if err != nil {
		return nil, err
	}
	packed, err := method.Outputs.Pack(out...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method.Name, err)
	}
	return packed, nil
}

func (c *Chain) contractAt(addr common.Address) *abi.ABI {
	switch addr {
	case ArtistTokenAddr:
		return &c.abis.ArtistToken
	case DEXAddr:
		return &c.abis.DEX
	case RoyaltiesAddr:
		return &c.abis.Royalties
	}
	return nil
}

// answer returns the outputs of a view function. The caller holds c.mu.
func (c *Chain) answer(name string, in []any) ([]any, error) {
	switch name {
	case "artists":
		a := c.artists[in[0].(*big.Int).String()]
		return []any{nz(a.ArtistID), a.Wallet, a.Name, a.ProfileURI, nz(a.TotalEarnings),
			nz(a.TotalSongs), a.Verified, a.Active, unix(a.RegisteredAt.Unix(), a.RegisteredAt.IsZero())}, nil
	case "songs":
		s := c.songs[in[0].(*big.Int).String()]
		return []any{nz(s.TokenID), nz(s.ArtistID), s.Title, s.MetadataURI, nz(s.TotalSupply),
			nz(s.AvailableSupply), nz(s.PricePerToken), s.Active, nz(s.TotalEarnings),
			unix(s.CreatedAt.Unix(), s.CreatedAt.IsZero())}, nil
	case "balanceOf":
		return []any{nz(c.balances[holderKey(in[1].(*big.Int), in[0].(common.Address))])}, nil
	case "getCurrentTokenCounts":
		tc := c.counts
		return []any{nz(tc.Artists), nz(tc.Songs), nz(tc.Catalogs), nz(tc.Licenses)}, nil
	case "artistIdByWallet":
		return []any{nz(c.artistByWallet[in[0].(common.Address)])}, nil
	case "getArtistSongs":
		ids := c.artistSongs[in[0].(*big.Int).String()]
		if ids == nil {
			ids = []*big.Int{}
		}
		return []any{ids}, nil
	case "getArtistCatalogs":
		return []any{[]*big.Int{}}, nil
	case "uri":
		return []any{""}, nil
	case "paused":
		return []any{c.paused}, nil
	case "getPoolInfo":
		p := c.pools[in[0].(*big.Int).String()]
		return []any{nz(p.TokenReserve), nz(p.BaseReserve), nz(p.TotalLPTokens), nz(p.FeeAccumulated), p.Active}, nil
	case "getExpectedTokensOut":
		p := c.pools[in[0].(*big.Int).String()]
		return []any{swapOut(in[1].(*big.Int), nz(p.BaseReserve), nz(p.TokenReserve))}, nil
	case "getExpectedEthOut":
		p := c.pools[in[0].(*big.Int).String()]
		return []any{swapOut(in[1].(*big.Int), nz(p.TokenReserve), nz(p.BaseReserve))}, nil
	case "getLPBalance":
		return []any{nz(c.lpBalances[holderKey(in[0].(*big.Int), in[1].(common.Address))])}, nil
	case "getClaimableAmount":
		return []any{nz(c.claimable[holderKey(in[0].(*big.Int), in[1].(common.Address))])}, nil
	case "getRoyaltyPoolInfo":
		r := c.royaltyPools[in[0].(*big.Int).String()]
		return []any{nz(r.TotalReceived), nz(r.ArtistClaimed), nz(r.HoldersClaimed), nz(r.PlatformClaimed), nz(r.Undistributed)}, nil
	}
	return nil, &RevertError{Reason: name + " is not a view function"}
}

func (s *ethService) GetTransactionReceipt(hash common.Hash) (*types.Receipt, error) {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.count("eth_getTransactionReceipt"); err != nil {
		return nil, err
	}
	r, ok := c.receipts[hash]
	if !ok {
		return nil, nil
	}
	if c.pendingPolls[hash] > 0 {
		c.pendingPolls[hash]--
		return nil, nil
	}
	return r, nil
}

func (s *ethService) GetBalance(addr common.Address, block *string) (*hexutil.Big, error) {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.count("eth_getBalance"); err != nil {
		return nil, err
	}
	return (*hexutil.Big)(new(big.Int).Set(nz(c.native[addr]))), nil
}

func (s *ethService) GetTransactionCount(addr common.Address, block *string) (hexutil.Uint64, error) {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.count("eth_getTransactionCount"); err != nil {
		return 0, err
	}
	return hexutil.Uint64(c.nonces[addr]), nil
}

func (s *ethService) GasPrice() (*hexutil.Big, error) {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.count("eth_gasPrice"); err != nil {
		return nil, err
	}
	return (*hexutil.Big)(new(big.Int).Set(c.gasPrice)), nil
}

func (s *ethService) EstimateGas(args txArgs, block *string) (hexutil.Uint64, error) {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.count("eth_estimateGas"); err != nil {
		return 0, err
	}
	if c.paused {
		return 0, &RevertError{Reason: "Pausable: paused"}
	}
	return 100_000, nil
}

func (s *ethService) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.count("eth_sendRawTransaction"); err != nil {
		return common.Hash{}, err
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, fmt.Errorf("decode transaction: %w", err)
	}
	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(c.chainID))
	from, err := types.Sender(signer, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid sender: %w", err)
	}
	if want := c.nonces[from]; tx.Nonce() != want {
		return common.Hash{}, fmt.Errorf("invalid nonce: have %d, want %d", tx.Nonce(), want)
	}
	c.nonces[from]++
	c.sent = append(c.sent, tx)

	status := types.ReceiptStatusSuccessful
	if c.revertSends {
		status = types.ReceiptStatusFailed
	}
	c.receipts[tx.Hash()] = newReceipt(tx.Hash(), status)
	c.pendingPolls[tx.Hash()] = c.receiptDelay
	return tx.Hash(), nil
}

// swapOut is the constant-product output with the fake fee.
func swapOut(in, reserveIn, reserveOut *big.Int) *big.Int {
	if in.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return new(big.Int)
	}
	inWithFee := new(big.Int).Mul(in, big.NewInt(10_000-fakeFeeBps))
	num := new(big.Int).Mul(inWithFee, reserveOut)
	den := new(big.Int).Add(new(big.Int).Mul(reserveIn, big.NewInt(10_000)), inWithFee)
	return num.Quo(num, den)
}

func unix(sec int64, zero bool) *big.Int {
	if zero {
		return new(big.Int)
	}
	return big.NewInt(sec)
}
