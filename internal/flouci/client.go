// Package flouci is a thin HTTP client for the Flouci developer API. It
// covers the two calls the gateway needs: creating a hosted payment session
// and verifying a payment's outcome.
package flouci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/flouci-labs/checkout-gateway/internal/models"
)

const (
	generatePaymentPath = "/api/generate_payment"
	verifyPaymentPath   = "/api/verify_payment/"

	// DefaultTimeout bounds each outbound call so a slow provider cannot
	// pin a handler indefinitely.
	DefaultTimeout = 5 * time.Second
)

// SessionRequest is the generate_payment body. AppToken and AppSecret are
// filled in by the client.
type SessionRequest struct {
	AppToken            string `json:"app_token"`
	AppSecret           string `json:"app_secret"`
	Amount              int64  `json:"amount"`
	AcceptCard          string `json:"accept_card"`
	SessionTimeoutSecs  int    `json:"session_timeout_secs"`
	SuccessLink         string `json:"success_link"`
	FailLink            string `json:"fail_link"`
	DeveloperTrackingID string `json:"developer_tracking_id"`
}

type generateResponse struct {
	Result struct {
		Link string `json:"link"`
	} `json:"result"`
}

// VerifyResult is the verify_payment response. Success reports the payment
// outcome; the tracking id correlates it back to a local order.
type VerifyResult struct {
	Success bool `json:"success"`
	Result  struct {
		DeveloperTrackingID string `json:"developer_tracking_id"`
		Status              string `json:"status"`
		Type                string `json:"type"`
	} `json:"result"`
}

type Client struct {
	baseURL    string
	appToken   string
	appSecret  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(baseURL, appToken, appSecret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:   baseURL,
		appToken:  appToken,
		appSecret: appSecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "flouci",
			Timeout: 30 * time.Second,
		}),
	}
}

// GeneratePayment opens a hosted payment session and returns the redirect
// link the customer should be sent to. Every failure mode, from transport
// errors to a response without result.link, wraps models.ErrSessionCreation.
// No retry is attempted: a blind retry could open a duplicate session.
func (c *Client) GeneratePayment(ctx context.Context, req SessionRequest) (string, error) {
	req.AppToken = c.appToken
	req.AppSecret = c.appSecret

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", models.ErrSessionCreation, err)
	}

	link, err := c.breaker.Execute(func() (interface{}, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePaymentPath, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
		}

		var decoded generateResponse
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return "", fmt.Errorf("malformed response: %v", err)
		}
		if decoded.Result.Link == "" {
			return "", fmt.Errorf("response carries no result.link")
		}
		return decoded.Result.Link, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrSessionCreation, err)
	}
	return link.(string), nil
}

// VerifyPayment fetches the transaction status for a payment id. Credentials
// go in headers here, not in the body, per the verification endpoint's
// contract. Transport and decode failures wrap models.ErrVerifyTransport.
func (c *Client) VerifyPayment(ctx context.Context, paymentID string) (*VerifyResult, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+verifyPaymentPath+paymentID, nil)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("apppublic", c.appToken)
		httpReq.Header.Set("appsecret", c.appSecret)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
		}

		var decoded VerifyResult
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("malformed response: %v", err)
		}
		return &decoded, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrVerifyTransport, err)
	}
	return result.(*VerifyResult), nil
}
