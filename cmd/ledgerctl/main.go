// Command ledgerctl operates the fiscal ledger from a terminal: recording
// purchases and sales, managing invoices and categories, running migrations
// and triggering the periodic jobs by hand.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		os.Exit(1)
	}
}
