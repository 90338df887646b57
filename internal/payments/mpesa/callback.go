package mpesa

// Callback is the body Daraja posts to the callback URL once the customer
// answers the STK prompt.
type Callback struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  *struct {
		Item []CallbackItem `json:"Item"`
	} `json:"CallbackMetadata,omitempty"`
}

type CallbackItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value,omitempty"`
}

func (c *Callback) Succeeded() bool {
	return c.Body.STKCallback.ResultCode == 0
}

// Item returns the named metadata value, e.g. MpesaReceiptNumber.
func (c *Callback) Item(name string) (any, bool) {
	meta := c.Body.STKCallback.CallbackMetadata
	if meta == nil {
		return nil, false
	}
	for _, item := range meta.Item {
		if item.Name == name {
			return item.Value, true
		}
	}
	return nil, false
}
