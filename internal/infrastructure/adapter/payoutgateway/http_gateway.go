package payoutgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/gateway"
)

// maxErrorBody caps how much of a processor error body is kept for logs
const maxErrorBody = 512

type submitRequest struct {
	Reference  string `json:"reference"`
	AccountID  string `json:"accountId"`
	ProfileRef string `json:"profileRef"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Memo       string `json:"memo,omitempty"`
}

type payoutResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// HTTPGateway talks to the payout processor's REST API
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  coreport.Logger
}

// NewHTTPGateway creates a gateway for the processor at baseURL
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration, logger coreport.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(map[string]any{"component": "payout_gateway"}),
	}
}

// Submit sends the payout. The payout request id is the processor idempotency
// key, so resubmitting an accepted payout returns the original receipt.
func (g *HTTPGateway) Submit(ctx context.Context, instruction gateway.PayoutInstruction) (*gateway.PayoutReceipt, error) {
	body, err := json.Marshal(submitRequest{
		Reference:  instruction.PayoutRequestID,
		AccountID:  strconv.FormatUint(instruction.AccountID, 10),
		ProfileRef: instruction.PayoutProfileRef,
		Amount:     instruction.Amount.StringFixed(2),
		Currency:   instruction.Currency,
		Memo:       instruction.ReservationTxID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode payout: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payouts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", instruction.PayoutRequestID)

	return g.do(req, instruction.PayoutRequestID)
}

// Status asks the processor for the current state of a payout
func (g *HTTPGateway) Status(ctx context.Context, payoutRequestID, externalRef string) (*gateway.PayoutReceipt, error) {
	// Lookups by our own id work even when the submission was never acknowledged
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/payouts/"+url.PathEscape(payoutRequestID), nil)
	if err != nil {
		return nil, err
	}
	if externalRef != "" {
		req.Header.Set("X-External-Ref", externalRef)
	}

	return g.do(req, payoutRequestID)
}

func (g *HTTPGateway) do(req *http.Request, payoutRequestID string) (*gateway.PayoutReceipt, error) {
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payout processor unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound && req.Method == http.MethodGet:
		return nil, gateway.ErrPayoutUnknown
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusPaymentRequired,
		resp.StatusCode == http.StatusUnprocessableEntity:
		reason := readReason(resp.Body)
		g.logger.Warn("Payout rejected by processor", map[string]any{
			"payout_request_id": payoutRequestID,
			"status_code":       resp.StatusCode,
			"reason":            reason,
		})
		return nil, fmt.Errorf("%w: %s", gateway.ErrPayoutRejected, reason)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// Anything else leaves the outcome unknown; the reconciler asks again
		return nil, fmt.Errorf("payout processor returned %d: %s", resp.StatusCode, readReason(resp.Body))
	}

	var payload payoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode processor response: %w", err)
	}

	status, ok := mapStatus(payload.Status)
	if !ok {
		return nil, fmt.Errorf("unknown processor status %q", payload.Status)
	}

	return &gateway.PayoutReceipt{
		ExternalRef: payload.ID,
		Status:      status,
		Reason:      payload.Reason,
	}, nil
}

func mapStatus(status string) (gateway.ExternalStatus, bool) {
	switch strings.ToLower(status) {
	case "accepted", "pending", "processing", "in_transit":
		return gateway.ExternalAccepted, true
	case "paid", "succeeded", "completed":
		return gateway.ExternalSucceeded, true
	case "failed", "rejected", "returned", "canceled", "cancelled":
		return gateway.ExternalFailed, true
	}
	return "", false
}

func readReason(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))

	var payload payoutResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Reason != "" {
		return payload.Reason
	}
	return strings.TrimSpace(string(data))
}

var _ gateway.PayoutGateway = (*HTTPGateway)(nil)
