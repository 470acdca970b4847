package mobilemoney

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:     srv.URL + "/",
		APIKey:      "key-1",
		CallbackURL: "https://shop.example.com/api/v1/payment/callback",
		Timeout:     2 * time.Second,
		Networks:    []string{" Airtel ", "TNM"},
	})
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(Config{BaseURL: "https://gw.example.com", APIKey: "k"}); err != nil {
		t.Fatalf("ValidateConfig should pass, got: %v", err)
	}
	if err := ValidateConfig(Config{APIKey: "k"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("missing base url should fail, got: %v", err)
	}
	if err := ValidateConfig(Config{BaseURL: "https://gw.example.com"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("missing api key should fail, got: %v", err)
	}
}

func TestInitiateSendsChargeAndParsesResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/charges" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key-1" {
			t.Errorf("missing bearer token")
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["amount"] != "3000.00" || body["network"] != "airtel" {
			t.Errorf("unexpected body: %v", body)
		}
		if body["callback_url"] != "https://shop.example.com/api/v1/payment/callback" {
			t.Errorf("callback url should fall back to config: %v", body["callback_url"])
		}
		_, _ = w.Write([]byte(`{"status_code":200,"message":"ok","data":{"provider_ref":"MM-1","checkout_url":"https://pay.example.com/c/1","status":"pending"}}`))
	})

	result, err := client.Initiate(context.Background(), InitiateInput{
		TxRef:    "CD-1",
		Amount:   decimal.RequireFromString("3000"),
		Currency: "MWK",
		Mobile:   "+265991234567",
		Network:  "Airtel",
	})
	if err != nil {
		t.Fatalf("Initiate error: %v", err)
	}
	if result.ProviderRef != "MM-1" || result.CheckoutURL != "https://pay.example.com/c/1" || result.Status != StatusPending {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestInitiateRejectedVersusUnavailable(t *testing.T) {
	rejecting := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status_code":400,"message":"invalid msisdn"}`))
	})
	_, err := rejecting.Initiate(context.Background(), InitiateInput{TxRef: "CD-2", Amount: decimal.NewFromInt(10)})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected rejection, got: %v", err)
	}

	failing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err = failing.Initiate(context.Background(), InitiateInput{TxRef: "CD-3", Amount: decimal.NewFromInt(10)})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected request failure, got: %v", err)
	}

	declined := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status_code":200,"data":{"status":"declined"}}`))
	})
	_, err = declined.Initiate(context.Background(), InitiateInput{TxRef: "CD-4", Amount: decimal.NewFromInt(10)})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("declined charge should be a rejection, got: %v", err)
	}
}

func TestInitiateTimeoutIsRequestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Timeout: 20 * time.Millisecond})
	_, err := client.Initiate(context.Background(), InitiateInput{TxRef: "CD-5", Amount: decimal.NewFromInt(10)})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("timeout should be request failure, got: %v", err)
	}
}

func TestVerifyNormalizesStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/charges/CD-9" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status_code":200,"data":{"status":"SUCCESSFUL","provider_ref":"MM-9","amount":"3000.00"}}`))
	})
	result, err := client.Verify(context.Background(), "CD-9")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if result.Status != StatusSuccess || result.ProviderRef != "MM-9" || !result.Amount.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected verify result: %+v", result)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"success":    StatusSuccess,
		"Completed":  StatusSuccess,
		"successful": StatusSuccess,
		"failed":     StatusFailed,
		"cancelled":  StatusFailed,
		"declined":   StatusFailed,
		"expired":    StatusFailed,
		" pending ":  StatusPending,
		"processing": "",
		"":           "",
	}
	for raw, want := range cases {
		if got := NormalizeStatus(raw); got != want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"tx_ref":"CD-1","status":"success"}`)
	sig := Sign("whsec", body)
	if err := VerifySignature("whsec", body, sig); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := VerifySignature("whsec", body, strings.ToUpper(sig)); err != nil {
		t.Fatalf("signature should be case-insensitive: %v", err)
	}
	if err := VerifySignature("whsec", []byte(`{"tx_ref":"CD-1","status":"failed"}`), sig); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("tampered body should fail, got: %v", err)
	}
	if err := VerifySignature("whsec", body, ""); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("missing signature should fail, got: %v", err)
	}
	if err := VerifySignature("", body, ""); err != nil {
		t.Fatalf("no secret should skip verification, got: %v", err)
	}
}

func TestSupportsNetworkAndParseCallback(t *testing.T) {
	client := NewClient(Config{Networks: []string{"airtel"}})
	if !client.SupportsNetwork("AIRTEL") || client.SupportsNetwork("mpamba") {
		t.Fatalf("network filter mismatch")
	}
	if _, err := ParseCallback([]byte(`{"status":"success"}`)); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("callback without tx_ref should fail, got: %v", err)
	}
	data, err := ParseCallback([]byte(`{"tx_ref":" CD-1 ","status":"success","provider_ref":"MM-1"}`))
	if err != nil || data.TxRef != "CD-1" || data.ProviderRef != "MM-1" {
		t.Fatalf("unexpected callback: %+v %v", data, err)
	}
}
