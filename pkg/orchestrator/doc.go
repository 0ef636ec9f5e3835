// Package orchestrator drives BTF-2300 write commands from intent to a
// normalized result.
//
// Every command runs the same lifecycle:
//
//	Idle -> Preparing -> Submitted -> Confirming -> Confirmed | Failed
//
// Preparing converts human amounts to base units, applies the slippage
// tolerance to the expected output and stamps a deadline of
// now + DeadlineWindow. Submitted obtains a signer from the session
// (switching or adding the network if needed) and sends the call with its
// value attached. Confirming polls the receipt with exponential backoff
// until it arrives, ReceiptWait elapses or the context ends.
//
// Commands never return an error. The outcome is a model.TransactionResult:
//
//	res := o.BuyFromPool(ctx, orchestrator.BuyFromPoolParams{
//		TokenID:    big.NewInt(2_000_001_001),
//		BaseAmount: "10",
//	})
//	if !res.Success {
//		log.Println(res.ID, res.ErrorMessage)
//	}
//
// ID is the transaction hash once something was submitted and "0x0"
// before that. A receipt with status 0 yields "transaction reverted".
//
// # Minimum Output
//
// Pool commands bound their output with quote.MinOut(expected, slippage).
// The expected amount comes from the params when given. When it is omitted
// the DEX is asked for a live quote right before submission. The contract
// enforces the bound; the orchestrator only supplies it.
//
// # Events
//
// An Observer sees every transition with the operation id and, from
// Confirming on, the transaction hash. Transitions are also logged at debug
// level through zap.
//
// After a receipt arrives the cached pool, song, balance and royalty reads
// for the token and the signer are dropped from the read cache.
package orchestrator
