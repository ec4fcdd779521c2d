package param

import (
	"context"
	"fmt"
	"os"
)

// EnvFetcher resolves credentials from the process environment. Used for
// local runs where there is no parameter store.
type EnvFetcher struct{}

func (EnvFetcher) Fetch(_ context.Context, name string) (string, error) {
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("environment variable %s is not set", name)
}
