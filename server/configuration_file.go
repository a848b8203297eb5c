package server

import (
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional config file. Keys match the json config of earlier deployments,
// and yaml is a superset of json, so those files load unchanged.
type FileConfig struct {
	DbUrl                string   `yaml:"db_url"`
	ScreenerApiKey       string   `yaml:"screener_api_key"`
	RiskScoreLimit       *int     `yaml:"risk_score_limit"`
	WhitelistedAddresses []string `yaml:"whitelisted_addresses"`
	RequestBatchSize     int      `yaml:"request_batch_size"`
}

// ReadFileConfig returns an empty config for an empty file name
func ReadFileConfig(fileName string) (*FileConfig, error) {
	if fileName == "" {
		return &FileConfig{}, nil
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	var config FileConfig
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}
