package model

type DocumentMessage struct {
	RecipientPhone string `json:"recipientPhone" validate:"required"`
	DocumentName   string `json:"documentName" validate:"required,max=200"`
	DocumentURL    string `json:"documentUrl,omitempty" validate:"omitempty,url"`
	DocumentKey    string `json:"documentKey,omitempty" validate:"omitempty,max=512"`
	Caption        string `json:"caption,omitempty" validate:"omitempty,max=1024"`
}
