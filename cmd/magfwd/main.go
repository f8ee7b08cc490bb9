// Command magfwd evaluates magnetic anomaly forward models from the command
// line and serves them over gRPC.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
