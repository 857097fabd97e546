// Command sidecar runs a worker process alongside a terminal window.
package main

import "github.com/tessro/sidecar/internal/cli"

func main() {
	cli.Main()
}
