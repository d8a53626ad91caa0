// Package fallback runs an ordered list of unreliable providers until one
// yields a value that passes a validity predicate.
//
// Each call runs under an optional per-call timeout. A raised error, timeout,
// or panic marks the attempt absent; a rejected value marks it invalid. A
// provider may opt into one relaxed retry (Call.Relaxed) before the chain
// moves on. Exhaustion yields an absent Result carrying
// services.ErrChainExhausted; unvalidated output is never returned. The
// attempt log records every call for provenance.
package fallback
