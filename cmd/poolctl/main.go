// cmd/poolctl/main.go
// Seeds, checks, resets and exercises the sign pool.
//
// Usage:
//
//	go run ./cmd/poolctl init --tiers tiers.yaml
//	go run ./cmd/poolctl verify --fresh
//	go run ./cmd/poolctl draw -n 10
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "poolctl:", err)
		os.Exit(1)
	}
}
