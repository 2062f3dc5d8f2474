package main

import "github.com/linkmap-analysis/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
