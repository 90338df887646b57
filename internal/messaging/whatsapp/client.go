package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tibacare/pkg/client"
	"tibacare/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	integrationName = "whatsapp"

	DefaultDocumentName = "document.pdf"
)

var whatsappTracer = otel.Tracer("tibacare.internal.messaging.whatsapp")

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	phoneNumberID string
	http          *client.HttpClient
	metrics       *metrics.IntegrationMetrics
}

func NewClient(baseURL, token, phoneNumberID string, m *metrics.IntegrationMetrics) *Client {
	httpClient := client.NewHttpClient(baseURL)
	httpClient.SetHeader("Authorization", "Bearer "+token)
	return &Client{
		phoneNumberID: phoneNumberID,
		http:          httpClient,
		metrics:       m,
	}
}

type documentRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Document         document `json:"document"`
}

type document struct {
	Link     string `json:"link"`
	Filename string `json:"filename"`
	Caption  string `json:"caption,omitempty"`
}

// SendResponse is the Cloud API acknowledgement for an accepted message.
type SendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (r *SendResponse) MessageID() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

// SendDocument delivers a document by link to msisdn.
func (c *Client) SendDocument(ctx context.Context, msisdn, link, filename, caption string) (resp *SendResponse, err error) {
	ctx, span := whatsappTracer.Start(ctx, "messaging.whatsapp.send_document",
		trace.WithAttributes(attribute.String("tibacare.document", filename)))
	defer span.End()

	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		c.metrics.ObserveCall(integrationName, err, time.Since(started).Seconds())
	}()

	if filename == "" {
		filename = DefaultDocumentName
	}
	req := documentRequest{
		MessagingProduct: "whatsapp",
		To:               msisdn,
		Type:             "document",
		Document: document{
			Link:     link,
			Filename: filename,
			Caption:  caption,
		},
	}

	httpResp, err := c.http.Do(ctx, http.MethodPost, "/"+c.phoneNumberID+"/messages", req, nil)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send document: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr apiError
		if decodeErr := httpResp.DecodeJSON(&apiErr); decodeErr == nil && apiErr.Error != nil {
			return nil, fmt.Errorf("whatsapp: API error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("whatsapp: unexpected response: %s", httpResp.ToString())
	}

	var sent SendResponse
	if err := httpResp.DecodeJSON(&sent); err != nil {
		return nil, fmt.Errorf("whatsapp: decode response: %w", err)
	}
	return &sent, nil
}
