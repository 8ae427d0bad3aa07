// Package momo is the HTTP client for the MoMo payment gateway (v2 API).
// Every request and callback is signed with HMAC-SHA256 over MoMo's
// documented alphabetical field concatenation; the raw strings built here
// must match the gateway byte for byte.
package momo

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"petfoodstore/errs"
)

const requestTypeCaptureWallet = "captureWallet"

type Config struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string // e.g. https://test-payment.momo.vn
	RedirectURL string
	IPNURL      string
}

func ConfigFromEnv() Config {
	return Config{
		PartnerCode: os.Getenv("MOMO_PARTNER_CODE"),
		AccessKey:   os.Getenv("MOMO_ACCESS_KEY"),
		SecretKey:   os.Getenv("MOMO_SECRET_KEY"),
		Endpoint:    os.Getenv("MOMO_ENDPOINT"),
		RedirectURL: os.Getenv("MOMO_REDIRECT_URL"),
		IPNURL:      os.Getenv("MOMO_IPN_URL"),
	}
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: 15 * time.Second}}
}

func sign(secret, raw string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreateResult is the slice of the gateway response the payment workflow
// records on the payment row.
type CreateResult struct {
	PayURL      string
	OrderID     string
	RequestID   string
	Signature   string
	ResultCode  int
	Message     string
	RawResponse string
}

type createRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type createResponse struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	ResponseTime int64  `json:"responseTime"`
	Message      string `json:"message"`
	ResultCode   int    `json:"resultCode"`
	PayURL       string `json:"payUrl"`
	Deeplink     string `json:"deeplink"`
	QRCodeURL    string `json:"qrCodeUrl"`
	Signature    string `json:"signature"`
}

// CreateRawSignature builds the canonical string signed on a create request.
func CreateRawSignature(cfg Config, requestID, orderID, orderInfo string, amount int64) string {
	return "accessKey=" + cfg.AccessKey +
		"&amount=" + strconv.FormatInt(amount, 10) +
		"&extraData=" +
		"&ipnUrl=" + cfg.IPNURL +
		"&orderId=" + orderID +
		"&orderInfo=" + orderInfo +
		"&partnerCode=" + cfg.PartnerCode +
		"&redirectUrl=" + cfg.RedirectURL +
		"&requestId=" + requestID +
		"&requestType=" + requestTypeCaptureWallet
}

// CreatePaymentRequest asks the gateway for a hosted payment URL. Network
// failures come back as transient errors; a non-zero gateway resultCode is a
// validation failure, not retryable.
func (c *Client) CreatePaymentRequest(ctx context.Context, requestID, orderID, orderInfo string, amount int64) (*CreateResult, error) {
	raw := CreateRawSignature(c.cfg, requestID, orderID, orderInfo, amount)
	req := createRequest{
		PartnerCode: c.cfg.PartnerCode,
		RequestID:   requestID,
		Amount:      amount,
		OrderID:     orderID,
		OrderInfo:   orderInfo,
		RedirectURL: c.cfg.RedirectURL,
		IPNURL:      c.cfg.IPNURL,
		RequestType: requestTypeCaptureWallet,
		ExtraData:   "",
		Lang:        "vi",
		Signature:   sign(c.cfg.SecretKey, raw),
	}

	body, err := c.post(ctx, "/v2/gateway/api/create", req)
	if err != nil {
		return nil, err
	}

	var resp createResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("momo: bad create response: %w", err)
	}
	if resp.ResultCode != 0 {
		return nil, errs.Validation("momo rejected payment request: %d %s", resp.ResultCode, resp.Message)
	}
	return &CreateResult{
		PayURL:      resp.PayURL,
		OrderID:     resp.OrderID,
		RequestID:   resp.RequestID,
		Signature:   resp.Signature,
		ResultCode:  resp.ResultCode,
		Message:     resp.Message,
		RawResponse: string(body),
	}, nil
}

// IPNPayload is the asynchronous callback MoMo delivers after the customer
// pays (or fails to).
type IPNPayload struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

func (p IPNPayload) Success() bool { return p.ResultCode == 0 }

// IPNRawSignature builds the canonical string MoMo signs on callbacks.
func IPNRawSignature(accessKey string, p IPNPayload) string {
	return "accessKey=" + accessKey +
		"&amount=" + strconv.FormatInt(p.Amount, 10) +
		"&extraData=" + p.ExtraData +
		"&message=" + p.Message +
		"&orderId=" + p.OrderID +
		"&orderInfo=" + p.OrderInfo +
		"&orderType=" + p.OrderType +
		"&partnerCode=" + p.PartnerCode +
		"&payType=" + p.PayType +
		"&requestId=" + p.RequestID +
		"&responseTime=" + strconv.FormatInt(p.ResponseTime, 10) +
		"&resultCode=" + strconv.Itoa(p.ResultCode) +
		"&transId=" + strconv.FormatInt(p.TransID, 10)
}

// SignIPN computes the signature MoMo would put on the payload. Exported for
// tests and the sandbox simulator.
func SignIPN(cfg Config, p IPNPayload) string {
	return sign(cfg.SecretKey, IPNRawSignature(cfg.AccessKey, p))
}

// VerifyIPN recomputes the payload signature and compares constant-time.
func (c *Client) VerifyIPN(p IPNPayload) bool {
	want := SignIPN(c.cfg, p)
	return hmac.Equal([]byte(want), []byte(p.Signature))
}

type refundRequest struct {
	PartnerCode string `json:"partnerCode"`
	OrderID     string `json:"orderId"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	TransID     int64  `json:"transId"`
	Lang        string `json:"lang"`
	Description string `json:"description"`
	Signature   string `json:"signature"`
}

type refundResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

// Refund reverses a captured transaction through the gateway.
func (c *Client) Refund(ctx context.Context, requestID, orderID string, amount, transID int64, description string) error {
	raw := "accessKey=" + c.cfg.AccessKey +
		"&amount=" + strconv.FormatInt(amount, 10) +
		"&description=" + description +
		"&orderId=" + orderID +
		"&partnerCode=" + c.cfg.PartnerCode +
		"&requestId=" + requestID +
		"&transId=" + strconv.FormatInt(transID, 10)
	req := refundRequest{
		PartnerCode: c.cfg.PartnerCode,
		OrderID:     orderID,
		RequestID:   requestID,
		Amount:      amount,
		TransID:     transID,
		Lang:        "vi",
		Description: description,
		Signature:   sign(c.cfg.SecretKey, raw),
	}

	body, err := c.post(ctx, "/v2/gateway/api/refund", req)
	if err != nil {
		return err
	}
	var resp refundResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("momo: bad refund response: %w", err)
	}
	if resp.ResultCode != 0 {
		return errs.Validation("momo refund rejected: %d %s", resp.ResultCode, resp.Message)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Transient(err, "momo gateway unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Transient(err, "momo gateway response truncated")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.Transient(fmt.Errorf("status %s", resp.Status), "momo gateway error")
	}
	return body, nil
}
