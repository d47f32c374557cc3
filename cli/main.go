package main

import "github.com/leadbridge/marketplace/cli/internal/cmd"

func main() {
	cmd.Execute()
}
