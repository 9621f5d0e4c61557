package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kartlane/storefront-backend/pkg/config"
	pkgerrors "github.com/kartlane/storefront-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   server.URL,
		Timeout:   2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(config.RazorpayConfig{KeySecret: "s"}); err == nil {
		t.Fatal("expected missing key id error")
	}
	if _, err := NewClient(config.RazorpayConfig{KeyID: "k"}); err == nil {
		t.Fatal("expected missing secret error")
	}
}

func TestCreateOrder(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "rzp_test_secret" {
			t.Errorf("basic auth not set")
		}
		if r.URL.Path != "/orders" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":"order_abc","amount":49900,"currency":"INR","status":"created"}`))
	}))

	order, err := client.CreateOrder(context.Background(), 49900, "INR", "tokens-10", nil)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != "order_abc" || order.Amount != 49900 {
		t.Fatalf("order = %+v", order)
	}
}

func TestCreateOrderRejectsZeroAmount(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway should not be called")
	}))
	if _, err := client.CreateOrder(context.Background(), 0, "INR", "", nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFetchPaymentRetriesTransientFailures(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id":"pay_1","order_id":"order_abc","amount":49900,"status":"captured"}`))
	}))

	payment, err := client.FetchPayment(context.Background(), "pay_1")
	if err != nil {
		t.Fatalf("fetch payment: %v", err)
	}
	if payment.Status != "captured" {
		t.Fatalf("payment = %+v", payment)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestFetchPaymentDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := client.FetchPayment(context.Background(), "pay_missing"); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("client error retried %d times", calls)
	}
}

func TestVerifySignature(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	mac := hmac.New(sha256.New, []byte("rzp_test_secret"))
	mac.Write([]byte("order_abc|pay_1"))
	signature := hex.EncodeToString(mac.Sum(nil))

	if !client.VerifySignature("order_abc", "pay_1", signature) {
		t.Fatal("valid signature rejected")
	}
	if client.VerifySignature("order_abc", "pay_1", "deadbeef") {
		t.Fatal("invalid signature accepted")
	}
	if client.VerifySignature("", "pay_1", signature) {
		t.Fatal("empty order id accepted")
	}
}
