package mpesa

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type darajaStub struct {
	t           *testing.T
	tokenStatus int
	ackCode     string
	received    STKPushRequest
	bearer      string
}

func (d *darajaStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/oauth/v1/generate":
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("key:secret"))
		assert.Equal(d.t, want, r.Header.Get("Authorization"))
		assert.Equal(d.t, "client_credentials", r.URL.Query().Get("grant_type"))
		if d.tokenStatus != 0 {
			w.WriteHeader(d.tokenStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "expires_in": "3599"})
	case "/mpesa/stkpush/v1/processrequest":
		d.bearer = r.Header.Get("Authorization")
		assert.NoError(d.t, json.NewDecoder(r.Body).Decode(&d.received))
		_ = json.NewEncoder(w).Encode(STKPushResponse{
			MerchantRequestID:   "m-1",
			CheckoutRequestID:   "ws_CO_1",
			ResponseCode:        d.ackCode,
			ResponseDescription: "Success. Request accepted for processing",
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, stub *darajaStub) *Client {
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	c := NewClient(Config{
		BaseURL:        server.URL,
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		Shortcode:      "174379",
		Passkey:        "pass",
		CallbackURL:    "https://tibacare.example/api/v1/payments/callback",
	}, nil)
	c.now = func() time.Time { return time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC) }
	return c
}

func TestSTKPush(t *testing.T) {
	stub := &darajaStub{t: t, ackCode: "0"}
	c := newTestClient(t, stub)

	ack, err := c.STKPush(t.Context(), "254712345678", 500, url.Values{"ref": {"sealed"}})
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_1", ack.CheckoutRequestID)

	assert.Equal(t, "Bearer tok-1", stub.bearer)
	assert.Equal(t, "20250301103000", stub.received.Timestamp)
	assert.Equal(t, Password("174379", "pass", "20250301103000"), stub.received.Password)
	assert.Equal(t, "254712345678", stub.received.PartyA)
	assert.Equal(t, "254712345678", stub.received.PhoneNumber)
	assert.Equal(t, "174379", stub.received.PartyB)
	assert.Equal(t, 500, stub.received.Amount)
	assert.Equal(t, "CustomerPayBillOnline", stub.received.TransactionType)
	assert.Equal(t, "https://tibacare.example/api/v1/payments/callback?ref=sealed", stub.received.CallBackURL)
}

func TestSTKPush_Failures(t *testing.T) {
	tests := []struct {
		name string
		stub *darajaStub
	}{
		{"token rejected", &darajaStub{tokenStatus: http.StatusUnauthorized, ackCode: "0"}},
		{"push rejected", &darajaStub{ackCode: "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.stub.t = t
			c := newTestClient(t, tt.stub)
			_, err := c.STKPush(t.Context(), "254712345678", 10, nil)
			assert.Error(t, err)
		})
	}
}

func TestPassword(t *testing.T) {
	got := Password("174379", "pass", "20250301103000")
	decoded, err := base64.StdEncoding.DecodeString(got)
	require.NoError(t, err)
	assert.Equal(t, "174379pass20250301103000", string(decoded))
}

func TestCallbackItem(t *testing.T) {
	var cb Callback
	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_1","ResultCode":0,"ResultDesc":"ok",
		"CallbackMetadata":{"Item":[{"Name":"Amount","Value":500},{"Name":"MpesaReceiptNumber","Value":"QAB12"}]}}}}`
	require.NoError(t, json.Unmarshal([]byte(body), &cb))

	assert.True(t, cb.Succeeded())
	receipt, ok := cb.Item("MpesaReceiptNumber")
	assert.True(t, ok)
	assert.Equal(t, "QAB12", receipt)

	_, ok = cb.Item("PhoneNumber")
	assert.False(t, ok)
}
