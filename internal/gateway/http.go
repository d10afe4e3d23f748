package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPAdapter talks to a real gateway endpoint. Requests are signed with
// HMAC-SHA256 over the body; the per-call timeout bounds the only blocking
// operations in the core.
type HTTPAdapter struct {
	baseURL string
	secret  []byte
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPAdapter(baseURL, secret string, timeout time.Duration, logger *zap.Logger) *HTTPAdapter {
	return &HTTPAdapter{
		baseURL: baseURL,
		secret:  []byte(secret),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (a *HTTPAdapter) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	var out ChargeResult
	if err := a.post(ctx, "/v1/charges", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAdapter) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	var out RefundResult
	if err := a.post(ctx, "/v1/refunds", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAdapter) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Signature", Sign(a.secret, body))

	resp, err := a.client.Do(httpReq)
	if err != nil {
		a.logger.Warn("gateway call failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		a.logger.Warn("gateway returned server error", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("gateway rejected request: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Sign computes the hex HMAC-SHA256 the gateway expects, also used to verify
// webhook signatures.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time.
func VerifySignature(secret, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}
