/*
 * Dummy screening api backend. Implements the address screening endpoint that the tests need.
 */
package testutils

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/flashbots/address-screener/adapters/trm"
	"github.com/flashbots/address-screener/types"
)

const MockApiKey = "test-api-key"

type MockTrmBackend struct {
	mu sync.Mutex
	// entity risk score level per address id, unknown addresses are reported without entities
	riskLevels map[string]int
	// when set, every request is answered with this status
	failStatus int
	calls      int
	screened   []types.AddressInfo
}

func NewMockTrmBackend() *MockTrmBackend {
	return &MockTrmBackend{riskLevels: make(map[string]int)}
}

func (m *MockTrmBackend) SetRiskLevel(addr types.AddressInfo, level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riskLevels[addr.Id()] = level
}

func (m *MockTrmBackend) FailWithStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStatus = status
}

// Calls returns the number of screening requests received
func (m *MockTrmBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Screened returns every address submitted so far, in arrival order
func (m *MockTrmBackend) Screened() []types.AddressInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.AddressInfo{}, m.screened...)
}

func (m *MockTrmBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riskLevels = make(map[string]int)
	m.failStatus = 0
	m.calls = 0
	m.screened = nil
}

func (m *MockTrmBackend) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if user, pass, ok := req.BasicAuth(); !ok || user != MockApiKey || pass != MockApiKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if m.failStatus != 0 {
		w.WriteHeader(m.failStatus)
		return
	}

	var inputs []trm.AddressScreeningRequest
	if err := json.NewDecoder(req.Body).Decode(&inputs); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	resp := make([]trm.AddressScreeningResponse, 0, len(inputs))
	for _, in := range inputs {
		addr := types.AddressInfo{Chain: in.Chain, Address: in.Address}
		m.screened = append(m.screened, addr)
		res := trm.AddressScreeningResponse{
			Address:               in.Address,
			AddressSubmitted:      in.Address,
			Chain:                 in.Chain,
			AddressRiskIndicators: []trm.AddressRiskIndicator{},
			Entities:              []trm.Entity{},
		}
		if level, found := m.riskLevels[addr.Id()]; found {
			res.Entities = append(res.Entities, trm.Entity{
				Category:       "Sanctions",
				Entity:         "mock entity",
				RiskScoreLevel: level,
			})
		}
		resp = append(resp, res)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
