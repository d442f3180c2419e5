package main

import "github.com/LeJamon/goFracVault/internal/cli"

func main() {
	cli.Execute()
}
