package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/flashbots/address-screener/types"
	"github.com/google/uuid"
)

var (
	ErrEmptyRequest    = errors.New("empty request")
	ErrRequestTooLarge = errors.New("too many addresses")
	ErrInvalidAddress  = errors.New("invalid address")
)

// generous upper bound per submitted address, including json overhead
const maxBytesPerAddress = 1024

// HandleScreeningRequest screens a json array of {chain, address}. Duplicates are screened once
// and reported once. Core errors are logged and answered with a generic 500.
func (s *ScreeningServer) HandleScreeningRequest(respw http.ResponseWriter, req *http.Request) {
	timeStarted := Now()
	logger := s.logger.New("uid", uuid.New(), "fingerprint", FingerprintFromRequest(req, timeStarted))
	logger.Info("[HandleScreeningRequest] POST request received")

	defer req.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(respw, req.Body, int64(s.maxRequestSize+1)*maxBytesPerAddress))
	if err != nil {
		logger.Warn("[HandleScreeningRequest] Failed to read request body", "error", err)
		writeJson(logger, respw, http.StatusBadRequest, types.ErrorResponse{Error: "failed to read request body"})
		return
	}

	var addresses []types.AddressInfo
	if err := json.Unmarshal(body, &addresses); err != nil {
		logger.Warn("[HandleScreeningRequest] Parse payload", "error", err)
		writeJson(logger, respw, http.StatusBadRequest, types.ErrorResponse{Error: "expected a json array of {chain, address}"})
		return
	}
	if err := validateAddresses(addresses, s.maxRequestSize); err != nil {
		logger.Warn("[HandleScreeningRequest] Rejected request", "error", err)
		writeJson(logger, respw, http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
		return
	}

	unique := DedupeAddresses(addresses)
	verdicts, err := s.screener.IsBlacklisted(req.Context(), unique)
	if err != nil {
		logger.Error("[HandleScreeningRequest] Screening failed", "addresses", len(unique), "error", err)
		writeJson(logger, respw, http.StatusInternalServerError, types.ErrorResponse{Error: "internal error"})
		return
	}

	writeJson(logger, respw, http.StatusOK, verdicts)
	logger.Info("Request finished", "addresses", len(unique), "timeTakenInSec", time.Since(timeStarted).Seconds())
}
