// Command warung runs the UMKM inventory, sales and forecast API.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	gateway "github.com/umkm-labs/warung/apigateway"
)

// Version information, set at build time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var logrusLogger = logrus.New()
var logSampling gateway.LogSamplingConfig

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
