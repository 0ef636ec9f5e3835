package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/boostify/btf2300-sdk-go/pkg/blockchain"
	"github.com/boostify/btf2300-sdk-go/pkg/contracts"
	"github.com/boostify/btf2300-sdk-go/pkg/metrics"
	"github.com/boostify/btf2300-sdk-go/pkg/model"
	"github.com/boostify/btf2300-sdk-go/pkg/wallet"
	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrTransactionReverted is reported when a receipt has status 0.
	ErrTransactionReverted = errors.New("transaction reverted")
	// ErrReceiptTimeout is reported when no receipt arrived within the
	// configured wait.
	ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

	errPending = errors.New("receipt pending")
)

// State is a step of the write lifecycle.
type State int

const (
	Idle State = iota
	Preparing
	Submitted
	Confirming
	Confirmed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Submitted:
		return "submitted"
	case Confirming:
		return "confirming"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Operation names a write command.
type Operation string

const (
	OpBuyDirect       Operation = "buyDirect"
	OpBuyFromPool     Operation = "buyFromPool"
	OpSellToPool      Operation = "sellToPool"
	OpAddLiquidity    Operation = "addLiquidity"
	OpRemoveLiquidity Operation = "removeLiquidity"
	OpClaimRoyalties  Operation = "claimRoyalties"
)

// Event reports a lifecycle transition. TxHash is zero before submission;
// Err is set on Failed.
type Event struct {
	OpID      uuid.UUID
	Operation Operation
	State     State
	TxHash    common.Hash
	Err       error
}

// Observer receives lifecycle events synchronously. It must not block.
type Observer func(Event)

// Chain is the node access the orchestrator needs. *blockchain.Gateway
// implements it.
type Chain interface {
	Addresses() contracts.Addresses
	ABIs() *contracts.ABIs
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	GetExpectedTokensOut(ctx context.Context, tokenID, baseAmount *big.Int) blockchain.Result[*big.Int]
	GetExpectedBaseOut(ctx context.Context, tokenID, tokenAmount *big.Int) blockchain.Result[*big.Int]
	Invalidate(tokenID *big.Int, holder common.Address)
}

// Sessions hands out signers on the target network. *wallet.Session
// implements it.
type Sessions interface {
	EnsureSession(ctx context.Context) (*wallet.Signer, error)
}

// Options configures an Orchestrator. Chain and Sessions are required.
type Options struct {
	Chain    Chain
	Sessions Sessions

	// DeadlineWindow is added to the current time for contract deadlines.
	DeadlineWindow time.Duration
	// SlippagePercent applies when a call does not carry its own tolerance.
	SlippagePercent float64
	// ReceiptWait bounds the confirmation phase.
	ReceiptWait time.Duration
	// ReceiptPoll is the first interval between receipt lookups; later
	// intervals grow exponentially.
	ReceiptPoll time.Duration

	Metrics  *metrics.Metrics
	Observer Observer
	Now      func() time.Time
}

// Orchestrator drives write commands through
// Idle -> Preparing -> Submitted -> Confirming -> Confirmed|Failed.
// Calls are independent; nothing serializes two concurrent writes.
type Orchestrator struct {
	chain    Chain
	sessions Sessions

	deadlineWindow time.Duration
	slippage       float64
	receiptWait    time.Duration
	receiptPoll    time.Duration

	metrics  *metrics.Metrics
	observer Observer
	now      func() time.Time
}

// New builds an Orchestrator. Zero durations fall back to one hour for the
// deadline window, three minutes of receipt wait and a two second poll.
func New(opts Options) (*Orchestrator, error) {
	if opts.Chain == nil {
		return nil, errors.New("orchestrator: chain is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("orchestrator: sessions is required")
	}
	if !validSlippage(opts.SlippagePercent) {
		return nil, fmt.Errorf("orchestrator: slippage %v must be in [0, 100)", opts.SlippagePercent)
	}
	o := &Orchestrator{
		chain:          opts.Chain,
		sessions:       opts.Sessions,
		deadlineWindow: opts.DeadlineWindow,
		slippage:       opts.SlippagePercent,
		receiptWait:    opts.ReceiptWait,
		receiptPoll:    opts.ReceiptPoll,
		metrics:        opts.Metrics,
		observer:       opts.Observer,
		now:            opts.Now,
	}
	if o.deadlineWindow <= 0 {
		o.deadlineWindow = time.Hour
	}
	if o.receiptWait <= 0 {
		o.receiptWait = 3 * time.Minute
	}
	if o.receiptPoll <= 0 {
		o.receiptPoll = 2 * time.Second
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// call is a prepared contract invocation.
type call struct {
	to    common.Address
	data  []byte
	value *big.Int
}

// prepareFunc builds the call inside the Preparing state.
type prepareFunc func(ctx context.Context) (call, error)

// tracker carries one operation through its states.
type tracker struct {
	o      *Orchestrator
	id     uuid.UUID
	op     Operation
	hash   common.Hash
	logger *zap.Logger
}

func (t *tracker) enter(s State, err error) {
	t.logger.Debug("Transaction state",
		zap.Stringer("state", s),
		zap.String("hash", t.txID()),
		zap.Error(err))
	if t.o.observer != nil {
		t.o.observer(Event{OpID: t.id, Operation: t.op, State: s, TxHash: t.hash, Err: err})
	}
}

func (t *tracker) txID() string {
	if t.hash == (common.Hash{}) {
		return ""
	}
	return t.hash.Hex()
}

func (t *tracker) fail(outcome string, err error) model.TransactionResult {
	t.enter(Failed, err)
	t.o.metrics.Transaction(string(t.op), outcome)
	return model.Failed(t.txID(), err.Error())
}

// run executes one write. tokenID is used to drop cached reads the write
// made stale; it may be nil.
func (o *Orchestrator) run(ctx context.Context, op Operation, tokenID *big.Int, prepare prepareFunc) model.TransactionResult {
	t := &tracker{o: o, id: uuid.New(), op: op}
	t.logger = zap.L().With(zap.String("operation", string(op)), zap.Stringer("opId", t.id))
	t.enter(Idle, nil)

	if err := ctx.Err(); err != nil {
		return t.fail(metrics.OutcomeFailure, err)
	}
	t.enter(Preparing, nil)
	c, err := prepare(ctx)
	if err != nil {
		return t.fail(metrics.OutcomeFailure, err)
	}

	if err := ctx.Err(); err != nil {
		return t.fail(metrics.OutcomeFailure, err)
	}
	t.enter(Submitted, nil)
	signer, err := o.sessions.EnsureSession(ctx)
	if err != nil {
		return t.fail(metrics.OutcomeFailure, err)
	}
	if err := ctx.Err(); err != nil {
		return t.fail(metrics.OutcomeFailure, err)
	}
	hash, err := signer.SignAndSend(ctx, wallet.CallSpec{To: c.to, Data: c.data, Value: c.value})
	if err != nil {
		return t.fail(metrics.OutcomeFailure, fmt.Errorf("submit: %w", err))
	}
	t.hash = hash

	t.enter(Confirming, nil)
	receipt, err := o.waitReceipt(ctx, hash)
	if err != nil {
		return t.fail(metrics.OutcomeFailure, err)
	}

	if tokenID != nil {
		o.chain.Invalidate(tokenID, signer.Account)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return t.fail(metrics.OutcomeReverted, ErrTransactionReverted)
	}

	t.enter(Confirmed, nil)
	o.metrics.Transaction(string(op), metrics.OutcomeOK)
	return model.TransactionResult{Success: true, ID: hash.Hex()}
}

// waitReceipt polls for the receipt of hash with exponential backoff.
// Lookup errors are retried like a pending receipt until ReceiptWait
// elapses or ctx ends.
func (o *Orchestrator) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.receiptPoll
	b.MaxInterval = 8 * o.receiptPoll
	b.MaxElapsedTime = o.receiptWait

	var lastErr error
	receipt, err := backoff.RetryWithData(func() (*types.Receipt, error) {
		r, err := o.chain.TransactionReceipt(ctx, hash)
		if err != nil {
			lastErr = err
			zap.L().Debug("Receipt lookup failed", zap.String("hash", hash.Hex()), zap.Error(err))
			return nil, err
		}
		if r == nil {
			return nil, errPending
		}
		return r, nil
	}, backoff.WithContext(b, ctx))
	if err == nil {
		return receipt, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("waiting for receipt: %w", ctxErr)
	}
	if lastErr != nil && !errors.Is(err, errPending) {
		return nil, fmt.Errorf("%w: %w", ErrReceiptTimeout, lastErr)
	}
	return nil, ErrReceiptTimeout
}

// deadline returns now + DeadlineWindow in unix seconds.
func (o *Orchestrator) deadline() *big.Int {
	return big.NewInt(o.now().Add(o.deadlineWindow).Unix())
}

func (o *Orchestrator) slippageOr(p *float64) (float64, error) {
	if p == nil {
		return o.slippage, nil
	}
	if !validSlippage(*p) {
		return 0, fmt.Errorf("slippage %v must be in [0, 100)", *p)
	}
	return *p, nil
}

func validSlippage(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p < 100
}
