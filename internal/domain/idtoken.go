package domain

import "sync/atomic"

// IdToken is a process-unique, monotonically increasing 64-bit counter used
// to refer to a not-yet-persisted object within a single write batch. Tokens
// never leak outside the batch that created them.
type IdToken uint64

var idTokenCounter atomic.Uint64

// NewIdToken returns a fresh, process-wide unique token. Relaxed ordering is
// sufficient: uniqueness is the only property required.
func NewIdToken() IdToken {
	return IdToken(idTokenCounter.Add(1))
}

// TaskProgress is the resolved, per-occurrence progress picture produced by
// the progress resolver: own contribution plus donation accounting.
type TaskProgress struct {
	Progress        int
	Total           int
	DonatedExcess   int
	ReceivedExcess  int
}
