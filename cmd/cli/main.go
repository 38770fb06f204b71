// oeelog - machine state timeline for PCB marking logs
//
// oeelog replays a laser-marking machine's daily log files and reports how
// many hours the machine spent productive, idle, on standby, down or off.
package main

import (
	"os"

	"github.com/ccollicutt/oeelog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
