package main

import "slotguard/internal/cli"

func main() {
	cli.Execute()
}
