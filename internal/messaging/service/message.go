package service

import (
	"context"
	"strings"

	"tibacare/internal/messaging/whatsapp"
	"tibacare/pkg/auth"
	apperrors "tibacare/pkg/errors"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"
	"tibacare/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

const msgInvalidDocument = "Invalid document message"

type MessageService interface {
	SendDocument(ctx context.Context, c auth.Capability, msg *model.DocumentMessage) (*whatsapp.SendResponse, error)
}

type DocumentSender interface {
	SendDocument(ctx context.Context, msisdn, link, filename, caption string) (*whatsapp.SendResponse, error)
}

type LinkPresigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

type messageService struct {
	sender    DocumentSender
	presigner LinkPresigner
	validate  *validator.Validate
	log       *logger.Logger
}

// NewMessageService accepts a nil presigner; documentKey requests are then unavailable.
func NewMessageService(sender DocumentSender, presigner LinkPresigner, log *logger.Logger) MessageService {
	return &messageService{
		sender:    sender,
		presigner: presigner,
		validate:  validator.New(),
		log:       log,
	}
}

func (s *messageService) SendDocument(ctx context.Context, c auth.Capability, msg *model.DocumentMessage) (*whatsapp.SendResponse, error) {
	if !c.IsStaff() {
		if !c.IsAuthenticated() {
			return nil, apperrors.Unauthorized("Authentication required")
		}
		return nil, apperrors.Forbidden("Only staff can send documents")
	}

	if err := s.validate.Struct(msg); err != nil {
		return nil, apperrors.Validation(msgInvalidDocument, map[string]any{"error": err.Error()})
	}

	hasURL := strings.TrimSpace(msg.DocumentURL) != ""
	hasKey := strings.TrimSpace(msg.DocumentKey) != ""
	if hasURL == hasKey {
		return nil, apperrors.Validation(msgInvalidDocument, map[string]any{
			"fields": map[string]any{"documentUrl": "exactly one of documentUrl or documentKey is required"},
		})
	}

	msisdn := sanitizer.MSISDN(msg.RecipientPhone)
	if msisdn == "" {
		return nil, apperrors.Validation(msgInvalidDocument, map[string]any{
			"fields": map[string]any{"recipientPhone": "recipientPhone must be a valid mobile number"},
		})
	}

	link := msg.DocumentURL
	if hasKey {
		if s.presigner == nil {
			return nil, apperrors.Unavailable("Document storage")
		}
		var err error
		link, err = s.presigner.PresignGet(ctx, msg.DocumentKey)
		if err != nil {
			s.log.Error("Failed to presign document", "key", msg.DocumentKey, "error", err)
			return nil, apperrors.Internal("Failed to prepare document link", err)
		}
	}

	resp, err := s.sender.SendDocument(ctx, msisdn, link, msg.DocumentName, msg.Caption)
	if err != nil {
		s.log.Error("Failed to send WhatsApp document",
			"sender", c.UserID,
			"document", msg.DocumentName,
			"error", err,
		)
		return nil, apperrors.BadGateway("Failed to send document", err)
	}

	s.log.Info("WhatsApp document sent",
		"sender", c.UserID,
		"document", msg.DocumentName,
		"region", sanitizer.PhoneRegion(msisdn),
		"message_id", resp.MessageID(),
	)
	return resp, nil
}
