/*
 * Test helpers.
 */
package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/flashbots/address-screener/types"
	"github.com/pkg/errors"
)

// SendScreeningRequest posts the addresses and returns the decoded verdicts with the http status.
// Verdicts are nil unless the status is 200.
func SendScreeningRequest(url string, addresses []types.AddressInfo) ([]types.Verdict, int, error) {
	body, err := json.Marshal(addresses)
	if err != nil {
		return nil, 0, errors.Wrap(err, "marshal")
	}

	resp, err := http.Post(url+"/screening/addresses", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, 0, errors.Wrap(err, "post")
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "read")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var verdicts []types.Verdict
	if err := json.Unmarshal(respData, &verdicts); err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "unmarshal")
	}
	return verdicts, resp.StatusCode, nil
}

func SendScreeningRequestOrFailNow(t *testing.T, url string, addresses []types.AddressInfo) []types.Verdict {
	verdicts, status, err := SendScreeningRequest(url, addresses)
	if err != nil {
		t.Fatal("SendScreeningRequest error:", err)
	}
	if status != http.StatusOK {
		t.Fatalf("SendScreeningRequest status %d", status)
	}
	return verdicts
}
