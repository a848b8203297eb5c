package trm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/flashbots/address-screener/metrics"
	"github.com/flashbots/address-screener/types"
	"github.com/pkg/errors"
)

const DefaultUrl = "https://api.trmlabs.com/public/v2/screening/addresses"

var (
	ErrRequest       = fmt.Errorf("screening request failed")
	ErrMissingResult = fmt.Errorf("screening response is missing an address")
)

// maximum number of response body bytes quoted in an error
const maxErrorBodyLen = 512

type Client struct {
	url        string
	apiKey     string
	httpClient http.Client
	logger     log.Logger
}

func NewClient(logger log.Logger, url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: http.Client{Timeout: timeout},
		logger:     logger.New("component", "trm"),
	}
}

// ScreenAddresses submits one batch and returns the responses aligned with the batch: result i
// belongs to batch[i].
func (c *Client) ScreenAddresses(ctx context.Context, batch []types.AddressInfo) (results []AddressScreeningResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveScreeningApiRequest(start, err) }()

	inputs := make([]AddressScreeningRequest, len(batch))
	for i, addr := range batch {
		inputs[i] = NewAddressScreeningRequest(addr)
	}
	body, err := json.Marshal(inputs)
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "post")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}
	c.logger.Debug("[ScreenAddresses] completed", "batchSize", len(batch), "status", resp.StatusCode, "timeNeeded", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(respBody) > maxErrorBodyLen {
			respBody = respBody[:maxErrorBodyLen]
		}
		return nil, fmt.Errorf("err: %w status code %d: %s", ErrRequest, resp.StatusCode, respBody)
	}

	var responses []AddressScreeningResponse
	if err := json.Unmarshal(respBody, &responses); err != nil {
		return nil, errors.Wrap(err, "unmarshal")
	}
	return MatchResponses(batch, responses)
}

// MatchResponses orders the api responses like the submitted batch. A response is matched by its
// accountExternalId, falling back to the submitted address and chain. Every submitted address
// needs a response.
func MatchResponses(batch []types.AddressInfo, responses []AddressScreeningResponse) ([]AddressScreeningResponse, error) {
	byId := make(map[string]int, len(responses))
	for i, res := range responses {
		id := res.AccountExternalId
		if id == "" {
			id = types.AddressInfo{Chain: res.Chain, Address: res.AddressSubmitted}.Id()
		}
		byId[id] = i
	}

	matched := make([]AddressScreeningResponse, len(batch))
	for i, addr := range batch {
		idx, found := byId[addr.Id()]
		if !found {
			return nil, fmt.Errorf("err: %w: %s", ErrMissingResult, addr)
		}
		matched[i] = responses[idx]
	}
	return matched, nil
}
