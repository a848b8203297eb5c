package trm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/flashbots/address-screener/types"
	"github.com/stretchr/testify/require"
)

var (
	btcAddr = types.AddressInfo{Chain: "bitcoin", Address: "bc1qng0keqn7cq6p8qdt4rjnzdxrygnzq7nd0pju8q"}
	ethAddr = types.AddressInfo{Chain: "ethereum", Address: "0x9dd9c2d208b07bf9a4ef9ca311f36d7185749635"}
)

func TestScreenAddresses(t *testing.T) {
	var received []AddressScreeningRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		user, pass, ok := req.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "secret", user)
		require.Equal(t, "secret", pass)
		require.Equal(t, http.MethodPost, req.Method)
		require.Nil(t, json.NewDecoder(req.Body).Decode(&received))

		// answer in reverse order to exercise matching
		resp := []AddressScreeningResponse{
			{AddressSubmitted: ethAddr.Address, Chain: ethAddr.Chain},
			{AddressSubmitted: btcAddr.Address, Chain: btcAddr.Chain, Entities: []Entity{{RiskScoreLevel: 15}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(log.New(), srv.URL, "secret", 5*time.Second)
	results, err := client.ScreenAddresses(context.Background(), []types.AddressInfo{btcAddr, ethAddr})
	require.Nil(t, err, err)

	require.Equal(t, []AddressScreeningRequest{
		{Address: btcAddr.Address, Chain: "bitcoin", AccountExternalId: btcAddr.Address + "_bitcoin"},
		{Address: ethAddr.Address, Chain: "ethereum", AccountExternalId: ethAddr.Address + "_ethereum"},
	}, received)

	require.Len(t, results, 2)
	require.Equal(t, btcAddr.Address, results[0].AddressSubmitted)
	require.Equal(t, ethAddr.Address, results[1].AddressSubmitted)
}

func TestScreenAddressesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down"}`))
	}))
	defer srv.Close()

	client := NewClient(log.New(), srv.URL, "secret", 5*time.Second)
	results, err := client.ScreenAddresses(context.Background(), []types.AddressInfo{btcAddr})
	require.ErrorIs(t, err, ErrRequest)
	require.Contains(t, err.Error(), "429")
	require.Nil(t, results)
}

func TestScreenAddressesMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	client := NewClient(log.New(), srv.URL, "secret", 5*time.Second)
	_, err := client.ScreenAddresses(context.Background(), []types.AddressInfo{btcAddr})
	require.NotNil(t, err)
}

func TestScreenAddressesUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(log.New(), url, "secret", time.Second)
	_, err := client.ScreenAddresses(context.Background(), []types.AddressInfo{btcAddr})
	require.NotNil(t, err)
}

func TestMatchResponses(t *testing.T) {
	tests := map[string]struct {
		responses []AddressScreeningResponse
		wantErr   bool
	}{
		"match by submitted address": {
			responses: []AddressScreeningResponse{
				{AddressSubmitted: ethAddr.Address, Chain: "ethereum"},
				{AddressSubmitted: btcAddr.Address, Chain: "bitcoin"},
			},
		},
		"match by external id": {
			responses: []AddressScreeningResponse{
				{AccountExternalId: ethAddr.Id(), Address: "normalized", Chain: "ethereum"},
				{AccountExternalId: btcAddr.Id(), Address: "normalized", Chain: "bitcoin"},
			},
		},
		"missing address": {
			responses: []AddressScreeningResponse{
				{AddressSubmitted: btcAddr.Address, Chain: "bitcoin"},
			},
			wantErr: true,
		},
		"same address on another chain is not a match": {
			responses: []AddressScreeningResponse{
				{AddressSubmitted: btcAddr.Address, Chain: "bitcoin"},
				{AddressSubmitted: ethAddr.Address, Chain: "polygon"},
			},
			wantErr: true,
		},
	}
	for testName, testCase := range tests {
		t.Run(testName, func(t *testing.T) {
			matched, err := MatchResponses([]types.AddressInfo{btcAddr, ethAddr}, testCase.responses)
			if testCase.wantErr {
				require.ErrorIs(t, err, ErrMissingResult)
				return
			}
			require.Nil(t, err, err)
			require.Equal(t, "bitcoin", matched[0].Chain)
			require.Equal(t, "ethereum", matched[1].Chain)
		})
	}
}

func TestExceedsRiskLimit(t *testing.T) {
	tests := map[string]struct {
		resp AddressScreeningResponse
		want bool
	}{
		"no risk reported": {
			resp: AddressScreeningResponse{},
			want: false,
		},
		"entity above limit": {
			resp: AddressScreeningResponse{Entities: []Entity{{RiskScoreLevel: 1}, {RiskScoreLevel: 15}}},
			want: true,
		},
		"entity at limit": {
			resp: AddressScreeningResponse{Entities: []Entity{{RiskScoreLevel: 10}}},
			want: false,
		},
		"indicator above limit": {
			resp: AddressScreeningResponse{
				Entities:              []Entity{{RiskScoreLevel: 5}},
				AddressRiskIndicators: []AddressRiskIndicator{{CategoryRiskScoreLevel: 11}},
			},
			want: true,
		},
		"everything at or below limit": {
			resp: AddressScreeningResponse{
				Entities:              []Entity{{RiskScoreLevel: 10}},
				AddressRiskIndicators: []AddressRiskIndicator{{CategoryRiskScoreLevel: 10}, {CategoryRiskScoreLevel: 3}},
			},
			want: false,
		},
	}
	for testName, testCase := range tests {
		t.Run(testName, func(t *testing.T) {
			require.Equal(t, testCase.want, testCase.resp.ExceedsRiskLimit(10))
		})
	}
}
