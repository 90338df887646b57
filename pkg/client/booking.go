package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"tibacare/pkg/model"
)

// BookingClient drives the bookings API over HTTP; used by integration tests.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseURL string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseURL),
	}
}

func (c *BookingClient) WithToken(token string) *BookingClient {
	c.httpClient.SetHeader("Authorization", "Bearer "+token)
	return c
}

func (c *BookingClient) WithoutToken() *BookingClient {
	delete(c.httpClient.headers, "Authorization")
	return c
}

func (c *BookingClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings", body)
}

func (c *BookingClient) CreateRaw(rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw("/api/v1/bookings", rawBody)
}

func (c *BookingClient) GetAll(limit int, offset int64) (*Response, error) {
	return c.httpClient.GET(fmt.Sprintf("/api/v1/bookings?limit=%d&offset=%d", limit, offset))
}

func (c *BookingClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/bookings/id/" + url.PathEscape(id))
}

func (c *BookingClient) Delete(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/bookings/id/" + url.PathEscape(id))
}

func (c *BookingClient) Start(id string) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings/id/"+url.PathEscape(id)+"/start", struct{}{})
}

func (c *BookingClient) End(id string) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings/id/"+url.PathEscape(id)+"/end", struct{}{})
}

func (c *BookingClient) Dashboard(providerID string) (*Response, error) {
	path := "/api/v1/bookings/dashboard"
	if providerID != "" {
		path += "?provider_id=" + url.QueryEscape(providerID)
	}
	return c.httpClient.GET(path)
}

func (c *BookingClient) Admission(providerID, preferredTime string) (*Response, error) {
	q := url.Values{}
	q.Set("provider_id", providerID)
	q.Set("preferred_time", preferredTime)
	return c.httpClient.GET("/api/v1/bookings/admission?" + q.Encode())
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var booking model.Booking
	if err := json.Unmarshal(wrapper.Data, &booking); err != nil {
		return nil, fmt.Errorf("could not decode booking json:\n%+v\n%s", resp.ToString(), err)
	}
	return &booking, nil
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.Booking, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var bookings []*model.Booking
	if err := json.Unmarshal(wrapper.Data, &bookings); err != nil {
		return nil, nil, fmt.Errorf("could not decode booking list:\n%+v\n%s", resp.ToString(), err)
	}

	return bookings, &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}, nil
}

func (c *BookingClient) DecodeDashboard(resp *Response) (*model.Dashboard, error) {
	var wrapper struct {
		Data model.Dashboard `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode dashboard:\n%+v\n%s", resp.ToString(), err)
	}
	return &wrapper.Data, nil
}

// UserClient covers registration and session issuance.
type UserClient struct {
	httpClient *HttpClient
}

func NewUserClient(baseURL string) *UserClient {
	return &UserClient{httpClient: NewHttpClient(baseURL)}
}

func (c *UserClient) Register(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/users", body)
}

func (c *UserClient) WithToken(token string) *UserClient {
	c.httpClient.SetHeader("Authorization", "Bearer "+token)
	return c
}

// Session exchanges credentials for a bearer token.
func (c *UserClient) Session(email, password string) (string, error) {
	resp, err := c.httpClient.POST("/api/v1/sessions", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("session rejected: %s", resp.ToString())
	}
	var wrapper struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return "", fmt.Errorf("could not decode session:\n%s\n%w", resp.ToString(), err)
	}
	if wrapper.Data.Token == "" {
		return "", fmt.Errorf("no token in session response: %s", resp.ToString())
	}
	return wrapper.Data.Token, nil
}
