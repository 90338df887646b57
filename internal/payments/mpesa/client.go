package mpesa

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tibacare/pkg/client"
	"tibacare/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	integrationName = "mpesa"

	tokenPath    = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath  = "/mpesa/stkpush/v1/processrequest"
	timestampFmt = "20060102150405"

	transactionType  = "CustomerPayBillOnline"
	accountReference = "TibaCare"
	transactionDesc  = "Consultation Payment"
)

var mpesaTracer = otel.Tracer("tibacare.internal.payments.mpesa")

// Daraja timestamps are East Africa Time.
var nairobi = time.FixedZone("EAT", 3*60*60)

type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	CallbackURL    string
}

type STKPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the acknowledgement Daraja returns once the prompt is queued.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type Client struct {
	cfg     Config
	http    *client.HttpClient
	metrics *metrics.IntegrationMetrics
	now     func() time.Time
}

func NewClient(cfg Config, m *metrics.IntegrationMetrics) *Client {
	return &Client{
		cfg:     cfg,
		http:    client.NewHttpClient(cfg.BaseURL),
		metrics: m,
		now:     time.Now,
	}
}

// STKPush asks Daraja to prompt msisdn for amount. callbackQuery is appended
// to the configured callback URL so the callback can be matched later.
func (c *Client) STKPush(ctx context.Context, msisdn string, amount int, callbackQuery url.Values) (resp *STKPushResponse, err error) {
	ctx, span := mpesaTracer.Start(ctx, "payments.mpesa.stk_push",
		trace.WithAttributes(attribute.Int("tibacare.amount", amount)))
	defer span.End()

	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		c.metrics.ObserveCall(integrationName, err, time.Since(started).Seconds())
	}()

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	callbackURL, err := withQuery(c.cfg.CallbackURL, callbackQuery)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().In(nairobi).Format(timestampFmt)
	req := STKPushRequest{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          Password(c.cfg.Shortcode, c.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   transactionType,
		Amount:            amount,
		PartyA:            msisdn,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       msisdn,
		CallBackURL:       callbackURL,
		AccountReference:  accountReference,
		TransactionDesc:   transactionDesc,
	}

	httpResp, err := c.http.Do(ctx, http.MethodPost, stkPushPath, req, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		return nil, fmt.Errorf("mpesa: stk push: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mpesa: stk push: %s", httpResp.ToString())
	}

	var ack STKPushResponse
	if err := httpResp.DecodeJSON(&ack); err != nil {
		return nil, fmt.Errorf("mpesa: decode stk push response: %w", err)
	}
	if ack.ResponseCode != "0" {
		return nil, fmt.Errorf("mpesa: stk push rejected: %s %s", ack.ResponseCode, ack.ResponseDescription)
	}

	span.SetAttributes(attribute.String("tibacare.checkout_request_id", ack.CheckoutRequestID))
	return &ack, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	resp, err := c.http.Do(ctx, http.MethodGet, tokenPath, nil, map[string]string{
		"Authorization": "Basic " + basic,
	})
	if err != nil {
		return "", fmt.Errorf("mpesa: access token: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mpesa: access token: %s", resp.ToString())
	}

	var token tokenResponse
	if err := resp.DecodeJSON(&token); err != nil {
		return "", fmt.Errorf("mpesa: decode access token: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("mpesa: empty access token")
	}
	return token.AccessToken, nil
}

// Password is base64(shortcode + passkey + timestamp).
func Password(shortcode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
}

func withQuery(raw string, query url.Values) (string, error) {
	if len(query) == 0 {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("mpesa: invalid callback url: %w", err)
	}
	q := u.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
