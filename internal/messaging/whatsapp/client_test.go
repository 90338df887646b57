package whatsapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendDocument(t *testing.T) {
	var received documentRequest
	var auth, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, path = r.Header.Get("Authorization"), r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","contacts":[{"input":"254712345678","wa_id":"254712345678"}],"messages":[{"id":"wamid.1"}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", "1099", nil)
	resp, err := c.SendDocument(t.Context(), "254712345678", "https://files.example/r.pdf", "", "Your results")
	require.NoError(t, err)

	assert.Equal(t, "wamid.1", resp.MessageID())
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "/1099/messages", path)
	assert.Equal(t, "whatsapp", received.MessagingProduct)
	assert.Equal(t, "document", received.Type)
	assert.Equal(t, "254712345678", received.To)
	assert.Equal(t, "https://files.example/r.pdf", received.Document.Link)
	assert.Equal(t, DefaultDocumentName, received.Document.Filename)
	assert.Equal(t, "Your results", received.Document.Caption)
}

func TestSendDocument_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Recipient phone number not in allowed list","type":"OAuthException","code":131030}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", "1099", nil)
	_, err := c.SendDocument(t.Context(), "254712345678", "https://files.example/r.pdf", "r.pdf", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "131030")
}

func TestWebhookEvent_Flatten(t *testing.T) {
	body := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[
		{"field":"messages","value":{"statuses":[{"id":"wamid.1","status":"delivered","recipient_id":"254712345678"}]}},
		{"field":"messages","value":{"messages":[{"from":"254712345678","id":"wamid.2","type":"text","text":{"body":"asante"}}]}}
	]}]}`

	var event WebhookEvent
	require.NoError(t, json.Unmarshal([]byte(body), &event))

	require.Len(t, event.Statuses(), 1)
	assert.Equal(t, "delivered", event.Statuses()[0].Status)
	require.Len(t, event.Messages(), 1)
	assert.Equal(t, "asante", event.Messages()[0].Text.Body)
}
