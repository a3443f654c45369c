package main

import (
	"github.com/wesleywang11/tpx-signal-watch/internal/cli"
)

func main() {
	cli.Execute()
}
