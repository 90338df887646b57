package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	paymenterrors "tibacare/internal/payments/errors"
	"tibacare/internal/payments/mpesa"
	apperrors "tibacare/pkg/errors"
	"tibacare/pkg/locale"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"
	"tibacare/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	msgInitiationFailed = "Payment initiation failed"

	mpesaRegion = "KE"

	// CallbackRefParam carries the sealed payment reference on the callback URL.
	CallbackRefParam = "ref"
)

type PaymentService interface {
	Initiate(ctx context.Context, req *model.PaymentRequest) (*mpesa.STKPushResponse, error)
	HandleCallback(ctx context.Context, ref string, cb *mpesa.Callback) error
}

type STKPusher interface {
	STKPush(ctx context.Context, msisdn string, amount int, callbackQuery url.Values) (*mpesa.STKPushResponse, error)
}

type Sealer interface {
	Seal(first, second string) (string, error)
	Open(token string) (string, string, error)
}

type paymentService struct {
	pusher   STKPusher
	sealer   Sealer
	validate *validator.Validate
	log      *logger.Logger
}

// NewPaymentService accepts a nil sealer; callbacks are then accepted unverified.
func NewPaymentService(pusher STKPusher, sealer Sealer, log *logger.Logger) PaymentService {
	return &paymentService{
		pusher:   pusher,
		sealer:   sealer,
		validate: validator.New(),
		log:      log,
	}
}

func (s *paymentService) Initiate(ctx context.Context, req *model.PaymentRequest) (*mpesa.STKPushResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("Invalid payment request", map[string]any{"error": err.Error()})
	}

	msisdn := sanitizer.MSISDN(req.Phone)
	if msisdn == "" {
		return nil, apperrors.Validation("Invalid payment request", map[string]any{
			"fields": map[string]any{"phone": paymenterrors.ErrInvalidPhone.Error()},
		})
	}

	country := locale.InferCountryFromPhone(msisdn)
	if country == nil || country.Code != mpesaRegion {
		return nil, apperrors.Validation("Invalid payment request", map[string]any{
			"fields": map[string]any{"phone": paymenterrors.ErrUnsupportedCountry.Error()},
		})
	}

	reference := uuid.NewString()
	query, err := s.callbackQuery(reference, msisdn)
	if err != nil {
		s.log.Error("Failed to seal payment reference", "reference", reference, "error", err)
		return nil, apperrors.BadGateway(msgInitiationFailed, err)
	}

	ack, err := s.pusher.STKPush(ctx, msisdn, req.Amount, query)
	if err != nil {
		s.log.Error("STK push failed", "reference", reference, "error", err)
		return nil, apperrors.BadGateway(msgInitiationFailed, fmt.Errorf("%w: %v", paymenterrors.ErrInitiationFailed, err))
	}

	s.log.Info("STK push accepted",
		"reference", reference,
		"checkout_request_id", ack.CheckoutRequestID,
		"amount", req.Amount,
		"currency", country.Currency,
	)
	return ack, nil
}

func (s *paymentService) callbackQuery(reference, msisdn string) (url.Values, error) {
	if s.sealer == nil {
		return nil, nil
	}
	token, err := s.sealer.Seal(reference, msisdn)
	if err != nil {
		return nil, err
	}
	return url.Values{CallbackRefParam: []string{token}}, nil
}

// HandleCallback records the outcome of an STK prompt. A callback whose
// reference cannot be opened returns ErrUntrustedCallback.
func (s *paymentService) HandleCallback(ctx context.Context, ref string, cb *mpesa.Callback) error {
	reference := ""
	if s.sealer != nil {
		var err error
		reference, _, err = s.sealer.Open(ref)
		if err != nil {
			return paymenterrors.ErrUntrustedCallback
		}
	}

	stk := cb.Body.STKCallback
	if !cb.Succeeded() {
		s.log.Warn("M-Pesa payment not completed",
			"reference", reference,
			"checkout_request_id", stk.CheckoutRequestID,
			"result_code", stk.ResultCode,
			"result_desc", stk.ResultDesc,
		)
		return nil
	}

	receipt, _ := cb.Item("MpesaReceiptNumber")
	s.log.Info("M-Pesa payment completed",
		"reference", reference,
		"checkout_request_id", stk.CheckoutRequestID,
		"receipt", receipt,
	)
	return nil
}

func IsUntrustedCallback(err error) bool {
	return errors.Is(err, paymenterrors.ErrUntrustedCallback)
}
