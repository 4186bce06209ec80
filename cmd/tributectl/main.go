package main

import "tributes/internal/cli"

func main() {
	cli.Execute()
}
