package main

import "github.com/tcgwatch/pricewatch/cmd"

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Execute()
}
