package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// AddressInfo identifies an address on a specific chain. The same address string on two
// different chains is a different entity.
type AddressInfo struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
}

// Id is the key used for the address in both the durable and the clearance cache.
func (a AddressInfo) Id() string {
	return a.Address + "_" + a.Chain
}

func (a AddressInfo) String() string {
	return fmt.Sprintf("%s/%s", a.Chain, a.Address)
}

// Verdict is the screening result for a single address
type Verdict struct {
	Address       AddressInfo
	IsBlacklisted bool
}

// verdictJson is the flat wire form: {"chain", "address", "isBlacklisted"}
type verdictJson struct {
	Chain         string `json:"chain"`
	Address       string `json:"address"`
	IsBlacklisted bool   `json:"isBlacklisted"`
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(verdictJson{
		Chain:         v.Address.Chain,
		Address:       v.Address.Address,
		IsBlacklisted: v.IsBlacklisted,
	})
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	var raw verdictJson
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.Address = AddressInfo{Chain: raw.Chain, Address: raw.Address}
	v.IsBlacklisted = raw.IsBlacklisted
	return nil
}

// LookupStatus is the answer of the durable store for one address. The durable store only ever
// knows positives, so there is deliberately no "clean" status.
type LookupStatus int

const (
	// LookupUnknown means the address has no durable entry. It says nothing about whether the
	// address is clean.
	LookupUnknown LookupStatus = iota
	LookupBlacklisted
)

func (s LookupStatus) String() string {
	switch s {
	case LookupBlacklisted:
		return "blacklisted"
	case LookupUnknown:
		return "unknown"
	}
	return fmt.Sprintf("LookupStatus(%d)", int(s))
}

type LookupResult struct {
	Address AddressInfo
	Status  LookupStatus
}

func (r LookupResult) NotFound() bool {
	return r.Status != LookupBlacklisted
}

// Verdict converts a durable hit into a verdict. Calling it on an unknown result is a bug at the
// call site, so it panics instead of quietly reporting the address as clean.
func (r LookupResult) Verdict() Verdict {
	if r.Status != LookupBlacklisted {
		panic(fmt.Sprintf("durable lookup for %s is %s, not a verdict", r.Address, r.Status))
	}
	return Verdict{Address: r.Address, IsBlacklisted: true}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Now       time.Time `json:"time"`
	StartTime time.Time `json:"startTime"`
	Version   string    `json:"version"`
}
