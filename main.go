package main

import "github.com/sadopc/punchclock/internal/cli"

func main() {
	cli.Execute()
}
