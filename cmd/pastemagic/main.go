package main

import "github.com/pastemagic/pastemagic/internal/cli"

func main() {
	cli.Execute()
}
