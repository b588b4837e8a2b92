package probe

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

var errMissingMetrics = errors.New("response has no data")

// HardwareChecker polls a hardware agent's metrics endpoint.
type HardwareChecker struct {
	HTTP *HTTPChecker
}

func NewHardwareChecker(h *HTTPChecker) *HardwareChecker {
	return &HardwareChecker{HTTP: h}
}

// agentEnvelope is the agent's response body.
type agentEnvelope struct {
	Data *domain.HardwareMetrics `json:"data"`
}

func (c *HardwareChecker) Probe(ctx context.Context, m *domain.Monitor) domain.ProbeResult {
	res, body := c.HTTP.fetch(ctx, m.URL, m.Secret, m.IgnoreTLS)
	if !res.Status {
		return res
	}
	metrics, err := decodeHardware(body)
	if err != nil {
		res.Status = false
		res.Code = domain.CodeUnexpectedPayload
		res.Message = "decode agent metrics: " + err.Error()
		res.Payload = nil
		return res
	}
	res.Payload = metrics
	return res
}

func decodeHardware(body []byte) (domain.HardwareMetrics, error) {
	var env agentEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.HardwareMetrics{}, err
	}
	if env.Data == nil {
		return domain.HardwareMetrics{}, errMissingMetrics
	}
	return *env.Data, nil
}
