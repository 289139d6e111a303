package jobs

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxPushBody = 1 << 20

// PushEnvelope is the wrapper Pub/Sub wraps around pushed messages.
type PushEnvelope struct {
	Message struct {
		Data       string            `json:"data"`
		Attributes map[string]string `json:"attributes"`
		MessageID  string            `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// DecodePush reads a push request and returns the decoded payload bytes
// plus the job type attribute.
func DecodePush(r *http.Request) ([]byte, string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPushBody))
	if err != nil {
		return nil, "", fmt.Errorf("jobs: read push body: %w", err)
	}

	var envelope PushEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, "", fmt.Errorf("jobs: decode push envelope: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		return nil, "", fmt.Errorf("jobs: decode push data: %w", err)
	}
	return data, envelope.Message.Attributes[attrJobType], nil
}
