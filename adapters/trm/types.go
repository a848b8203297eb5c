package trm

import "github.com/flashbots/address-screener/types"

type AddressScreeningRequest struct {
	Address           string `json:"address"`
	Chain             string `json:"chain"`
	AccountExternalId string `json:"accountExternalId"`
}

func NewAddressScreeningRequest(addr types.AddressInfo) AddressScreeningRequest {
	return AddressScreeningRequest{
		Address:           addr.Address,
		Chain:             addr.Chain,
		AccountExternalId: addr.Id(),
	}
}

type AddressScreeningResponse struct {
	AccountExternalId     string                 `json:"accountExternalId,omitempty"`
	Address               string                 `json:"address"`
	AddressSubmitted      string                 `json:"addressSubmitted"`
	Chain                 string                 `json:"chain"`
	AddressRiskIndicators []AddressRiskIndicator `json:"addressRiskIndicators"`
	Entities              []Entity               `json:"entities"`
}

type AddressRiskIndicator struct {
	Category                    string `json:"category"`
	CategoryId                  string `json:"categoryId"`
	CategoryRiskScoreLevel      int    `json:"categoryRiskScoreLevel"`
	CategoryRiskScoreLevelLabel string `json:"categoryRiskScoreLevelLabel"`
	RiskType                    string `json:"riskType"`
}

type Entity struct {
	Category             string `json:"category"`
	CategoryId           string `json:"categoryId"`
	ConfidenceScoreLabel string `json:"confidenceScoreLabel"`
	Entity               string `json:"entity"`
	RiskScoreLevel       int    `json:"riskScoreLevel"`
	RiskScoreLevelLabel  string `json:"riskScoreLevelLabel"`
}

// ExceedsRiskLimit reports whether any entity or risk indicator is scored above the limit.
// Entities are checked first.
func (r *AddressScreeningResponse) ExceedsRiskLimit(riskScoreLimit int) bool {
	for _, entity := range r.Entities {
		if entity.RiskScoreLevel > riskScoreLimit {
			return true
		}
	}
	for _, indicator := range r.AddressRiskIndicators {
		if indicator.CategoryRiskScoreLevel > riskScoreLimit {
			return true
		}
	}
	return false
}
