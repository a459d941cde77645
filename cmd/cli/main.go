// Package main is the entry point for the acct CLI binary.
package main

import (
	"os"

	cli "account-query/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
