// Command spake2p derives SPAKE2+ password verifiers and runs a local
// prover/verifier exchange over the wire format.
package main

import (
	"os"
)

func main() {
	// On failure Cobra prints the usage message and error string, so we only
	// need to exit with a non-0 status
	if newRootCmd().Execute() != nil {
		os.Exit(1)
	}
}
