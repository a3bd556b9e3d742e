package port

import (
	"context"
)

// FetchResult is a resolved detail document.
type FetchResult struct {
	Data      []byte
	FromCache bool
}

// DocumentResolver turns a detail reference into document bytes. Resolving
// the same reference twice yields byte-identical content.
type DocumentResolver interface {
	Resolve(ctx context.Context, ref string) (*FetchResult, error)
}

// DocumentCache stores fetched documents by key. Get reports a miss with
// found=false and a nil error.
type DocumentCache interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Put(ctx context.Context, key string, data []byte) error
}
