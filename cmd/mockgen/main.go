// Command mockgen writes a synthetic case dataset for local runs and SLA
// testing.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"intellectdca/internal/adapters/csvcases"
)

func main() {
	var (
		n    = flag.Int("n", 1000, "number of cases")
		out  = flag.String("out", "data/mock_debtors.csv", "output path")
		seed = flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	)
	flag.Parse()

	if err := generate(*n, *out, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "mockgen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("generated %d mock cases in %s\n", *n, *out)
}

func generate(n int, out string, seed uint64) error {
	if n < 0 {
		return fmt.Errorf("n must be non-negative, got %d", n)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	rows := csvcases.Generate(n, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	if err := csvcases.Write(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
