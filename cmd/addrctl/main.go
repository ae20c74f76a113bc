package main

import (
	"os"

	"github.com/address-classifier/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
