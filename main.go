package main

import "github.com/dyike/StockCouncil/internal/cli"

func main() {
	cli.Execute()
}
