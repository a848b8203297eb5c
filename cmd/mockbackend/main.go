package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/flashbots/address-screener/testutils"
	"github.com/flashbots/address-screener/types"
)

var (
	port       = flag.Int("port", 8090, "port to listen on")
	riskyChain = flag.String("risky-chain", "ethereum", "chain of the risky address")
	riskyAddr  = flag.String("risky-address", "", "address reported with a high risk score")
	riskyLevel = flag.Int("risky-level", 15, "risk score level reported for the risky address")
)

// Serves the mock screening api. Use testutils.MockApiKey as SCREENING_KEY.
func main() {
	flag.Parse()
	backend := testutils.NewMockTrmBackend()
	if *riskyAddr != "" {
		backend.SetRiskLevel(types.AddressInfo{Chain: *riskyChain, Address: *riskyAddr}, *riskyLevel)
	}

	http.Handle("/", backend)
	fmt.Printf("mock screening api listening on localhost:%d\n", *port)
	http.ListenAndServe(fmt.Sprintf("localhost:%d", *port), nil)
}
