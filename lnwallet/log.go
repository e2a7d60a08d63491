package lnwallet

import "github.com/btcsuite/btclog"

// log is this package's logger, set via UseLogger. It defaults to
// btclog.Disabled so importing this package without explicitly wiring a
// logger produces no output.
var log btclog.Logger = btclog.Disabled

// UseLogger sets the package-wide logger used by lnwallet.
func UseLogger(logger btclog.Logger) {
	log = logger
}
