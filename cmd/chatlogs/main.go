package main

import "chatlogs/internal/cli"

func main() {
	cli.Execute()
}
