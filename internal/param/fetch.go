package param

import "context"

// Fetcher resolves a named credential. The proxy calls Fetch on every
// request so a rotated credential takes effect without a restart.
type Fetcher interface {
	Fetch(context.Context, string) (string, error)
}
