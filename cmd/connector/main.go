package main

import "case-connector/internal/cli"

func main() {
	cli.Execute()
}
