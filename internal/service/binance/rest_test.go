package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// Reference vector from the exchange's API documentation.
func TestSignMatchesReferenceVector(t *testing.T) {
	c := NewRESTClient("https://example.com", "",
		"NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j", "USDT")

	query := "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"
	want := "c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71"
	if got := c.sign(query); got != want {
		t.Fatalf("signature mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestSignedRequestCarriesSignatureAndKey(t *testing.T) {
	const secret = "test-secret"

	var seen url.Values
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Query()
		apiKey = r.Header.Get("X-MBX-APIKEY")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "test-key", secret, "USDT")
	q := url.Values{}
	q.Set("symbol", "BTCUSDT")
	if _, err := c.get(context.Background(), "/fapi/v2/account", q, true); err != nil {
		t.Fatalf("signed get: %v", err)
	}

	if apiKey != "test-key" {
		t.Fatalf("expected API key header, got %q", apiKey)
	}
	for _, param := range []string{"timestamp", "recvWindow", "signature"} {
		if seen.Get(param) == "" {
			t.Fatalf("signed request missing %s: %v", param, seen)
		}
	}

	// the signature must cover exactly the sent parameters minus itself
	signed := seen.Get("signature")
	params := url.Values{}
	for key, vals := range seen {
		if key == "signature" {
			continue
		}
		params[key] = vals
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(params.Encode()))
	if want := hex.EncodeToString(mac.Sum(nil)); signed != want {
		t.Fatalf("signature does not cover the query string:\n got %s\nwant %s", signed, want)
	}
}

func TestUnsignedRequestOmitsCredentials(t *testing.T) {
	var seen url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Query()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "", "test-secret", "USDT")
	if _, err := c.get(context.Background(), "/fapi/v1/klines", nil, false); err != nil {
		t.Fatalf("get: %v", err)
	}
	if seen.Get("signature") != "" || seen.Get("timestamp") != "" {
		t.Fatalf("public request must not be signed: %v", seen)
	}
}
