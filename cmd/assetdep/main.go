package main

import "assetdep/internal/cli"

func main() {
	cli.Execute()
}
