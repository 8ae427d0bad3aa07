package momo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"petfoodstore/errs"
	"petfoodstore/payment/momo"
)

var testConfig = momo.Config{
	PartnerCode: "PETSTORE",
	AccessKey:   "access123",
	SecretKey:   "secret456",
	RedirectURL: "https://shop.example.com/payment/return",
	IPNURL:      "https://shop.example.com/payments/momo/callback",
}

func TestCreateRawSignature(t *testing.T) {
	raw := momo.CreateRawSignature(testConfig, "req-1", "ORD-20250828-AAAA1111", "order info", 250000)
	want := "accessKey=access123" +
		"&amount=250000" +
		"&extraData=" +
		"&ipnUrl=https://shop.example.com/payments/momo/callback" +
		"&orderId=ORD-20250828-AAAA1111" +
		"&orderInfo=order info" +
		"&partnerCode=PETSTORE" +
		"&redirectUrl=https://shop.example.com/payment/return" +
		"&requestId=req-1" +
		"&requestType=captureWallet"
	if raw != want {
		t.Errorf("canonical create string mismatch:\n got %q\nwant %q", raw, want)
	}
}

func TestIPNRawSignature(t *testing.T) {
	p := momo.IPNPayload{
		PartnerCode:  "PETSTORE",
		OrderID:      "ORD-20250828-AAAA1111",
		RequestID:    "req-1",
		Amount:       250000,
		OrderInfo:    "order info",
		OrderType:    "momo_wallet",
		TransID:      4088878653,
		ResultCode:   0,
		Message:      "Successful.",
		PayType:      "qr",
		ResponseTime: 1724800000000,
		ExtraData:    "",
	}
	raw := momo.IPNRawSignature("access123", p)
	want := "accessKey=access123" +
		"&amount=250000" +
		"&extraData=" +
		"&message=Successful." +
		"&orderId=ORD-20250828-AAAA1111" +
		"&orderInfo=order info" +
		"&orderType=momo_wallet" +
		"&partnerCode=PETSTORE" +
		"&payType=qr" +
		"&requestId=req-1" +
		"&responseTime=1724800000000" +
		"&resultCode=0" +
		"&transId=4088878653"
	if raw != want {
		t.Errorf("canonical IPN string mismatch:\n got %q\nwant %q", raw, want)
	}
}

func TestVerifyIPN(t *testing.T) {
	client := momo.NewClient(testConfig)

	p := momo.IPNPayload{
		PartnerCode:  "PETSTORE",
		OrderID:      "ORD-1",
		RequestID:    "req-1",
		Amount:       100000,
		TransID:      42,
		ResultCode:   0,
		Message:      "Successful.",
		PayType:      "qr",
		ResponseTime: 1724800000000,
	}
	p.Signature = momo.SignIPN(testConfig, p)

	if !client.VerifyIPN(p) {
		t.Error("Expected a correctly signed payload to verify")
	}

	tampered := p
	tampered.Amount = 1
	if client.VerifyIPN(tampered) {
		t.Error("Expected a tampered payload to fail verification")
	}

	unsigned := p
	unsigned.Signature = ""
	if client.VerifyIPN(unsigned) {
		t.Error("Expected a payload without signature to fail verification")
	}
}

func TestCreatePaymentRequest(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/gateway/api/create" {
			t.Error("Unexpected path:", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Error(err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"partnerCode": "PETSTORE",
			"orderId":     gotBody["orderId"],
			"requestId":   gotBody["requestId"],
			"resultCode":  0,
			"message":     "Successful.",
			"payUrl":      "https://test-payment.momo.vn/pay/abc",
			"signature":   "resp-signature",
		})
	}))
	defer srv.Close()

	cfg := testConfig
	cfg.Endpoint = srv.URL
	client := momo.NewClient(cfg)

	res, err := client.CreatePaymentRequest(context.Background(), "req-9", "ORD-9", "order info", 99000)
	if err != nil {
		t.Fatal(err)
	}

	if res.PayURL != "https://test-payment.momo.vn/pay/abc" {
		t.Error("Expected pay URL from gateway, got", res.PayURL)
	}
	if res.OrderID != "ORD-9" || res.RequestID != "req-9" {
		t.Error("Expected echoed identifiers, got", res.OrderID, res.RequestID)
	}
	if res.RawResponse == "" {
		t.Error("Expected the raw response body to be kept")
	}

	if gotBody["requestType"] != "captureWallet" {
		t.Error("Expected requestType captureWallet, got", gotBody["requestType"])
	}
	if gotBody["signature"] == "" || gotBody["signature"] == nil {
		t.Error("Expected the request to be signed")
	}
	if gotBody["amount"].(float64) != 99000 {
		t.Error("Expected amount 99000, got", gotBody["amount"])
	}
}

func TestCreatePaymentRequestRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"resultCode": 41, "message": "duplicate orderId"})
	}))
	defer srv.Close()

	cfg := testConfig
	cfg.Endpoint = srv.URL
	client := momo.NewClient(cfg)

	_, err := client.CreatePaymentRequest(context.Background(), "req-9", "ORD-9", "order info", 99000)
	if !errs.Is(err, errs.KindValidation) {
		t.Error("Expected validation error on gateway rejection, got", err)
	}
}

func TestCreatePaymentRequestUnreachable(t *testing.T) {
	cfg := testConfig
	cfg.Endpoint = "http://127.0.0.1:1" // nothing listens here
	client := momo.NewClient(cfg)

	_, err := client.CreatePaymentRequest(context.Background(), "req-9", "ORD-9", "order info", 99000)
	if !errs.Is(err, errs.KindTransient) {
		t.Error("Expected transient error for unreachable gateway, got", err)
	}
}

func TestRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/gateway/api/refund" {
			t.Error("Unexpected path:", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"resultCode": 0, "message": "Successful."})
	}))
	defer srv.Close()

	cfg := testConfig
	cfg.Endpoint = srv.URL
	client := momo.NewClient(cfg)

	if err := client.Refund(context.Background(), "req-1", "ORD-9-rf", 99000, 4088878653, "refund"); err != nil {
		t.Error("Expected refund to succeed, got", err)
	}
}
