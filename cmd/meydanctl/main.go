// Command meydanctl is the terminal client for a Meydan server.
package main

import "github.com/sakif/meydan/internal/cli"

func main() {
	cli.Execute()
}
