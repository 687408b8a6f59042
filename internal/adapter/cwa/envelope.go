package cwa

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoData means the response envelope did not report success. Callers treat
// it as an empty result, not as a failure.
var ErrNoData = errors.New("cwa: no data")

type envelope struct {
	Success Text            `json:"success"`
	Records json.RawMessage `json:"records"`
}

// decodeEnvelope returns the records payload of a datastore response.
func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if !strings.EqualFold(env.Success.String(), "true") {
		return nil, ErrNoData
	}
	if len(env.Records) == 0 || string(env.Records) == "null" {
		return nil, ErrNoData
	}
	return env.Records, nil
}
