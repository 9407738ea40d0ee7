package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	awspkg "github.com/pheebyy/carelink/pkg/aws"
	"github.com/pheebyy/carelink/pkg/docstore"
	apperrors "github.com/pheebyy/carelink/services/common/errors"
	"github.com/pheebyy/carelink/services/payment-service/models"
	"github.com/pheebyy/carelink/services/payment-service/providers"
)

const (
	// PremiumPeriod is how long one qualifying payment keeps a caregiver premium.
	PremiumPeriod = 30 * 24 * time.Hour

	RoleCaregiver = "caregiver"

	msgVerifyFailed     = "Payment verification failed."
	msgVerified         = "Transaction verified successfully."
	msgInitializeFailed = "Failed to initialize transaction."

	msgInitializeInvalid = "Missing or invalid email, amount or reference."
	msgVerifyInvalid     = "Missing reference or userId."
)

// PaymentStore is the slice of the document store the payment workflow writes to.
type PaymentStore interface {
	PutTransaction(ctx context.Context, tx *docstore.Transaction) error
	ActivatePremium(ctx context.Context, userID string, since, expiry time.Time) error
}

type PaymentService interface {
	Initialize(ctx context.Context, req *models.InitializeRequest) (*models.InitializeResult, error)
	Verify(ctx context.Context, req *models.VerifyRequest) (*models.VerificationResult, error)
}

type Options struct {
	Currency         string
	Channels         []string
	FXRate           float64
	PremiumThreshold float64
	Rates            RateSchedule
	TopicArn         string
	// Now defaults to time.Now.
	Now func() time.Time
}

type paymentServiceImpl struct {
	gateway   providers.PaymentGateway
	store     PaymentStore
	events    awspkg.EventPublisher
	metrics   awspkg.MetricsRecorder
	opts      Options
	threshold decimal.Decimal
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService wires the workflow. events and metrics may be nil.
func NewPaymentService(
	gateway providers.PaymentGateway,
	store PaymentStore,
	events awspkg.EventPublisher,
	metrics awspkg.MetricsRecorder,
	opts Options,
	logger *zap.Logger,
) PaymentService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FXRate == 0 {
		opts.FXRate = 1
	}
	return &paymentServiceImpl{
		gateway:   gateway,
		store:     store,
		events:    events,
		metrics:   metrics,
		opts:      opts,
		threshold: decimal.NewFromFloat(opts.PremiumThreshold),
		validate:  validator.New(),
		logger:    logger,
	}
}

func (s *paymentServiceImpl) Initialize(ctx context.Context, req *models.InitializeRequest) (*models.InitializeResult, error) {
	if req == nil {
		return nil, apperrors.InvalidArgument(msgInitializeInvalid)
	}
	r := *req
	r.Email = strings.TrimSpace(r.Email)
	r.Reference = strings.TrimSpace(r.Reference)
	if err := s.validate.Struct(&r); err != nil {
		s.logger.Debug("Initialize request rejected", zap.Error(err))
		return nil, apperrors.InvalidArgument(msgInitializeInvalid)
	}
	req = &r

	channels := req.Channels
	if len(channels) == 0 {
		channels = s.opts.Channels
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	resp, err := s.gateway.InitializeTransaction(ctx, providers.InitializeRequest{
		Email:     req.Email,
		Amount:    req.Amount,
		Reference: req.Reference,
		Currency:  s.opts.Currency,
		Channels:  channels,
		Metadata:  metadata,
	})
	if err != nil {
		s.logger.Error("Initialize transaction failed", zap.String("reference", req.Reference), zap.Error(err))
		s.count(ctx, awspkg.MetricPaymentFailed, "initialize")
		msg := msgInitializeFailed
		var gwErr *providers.GatewayError
		if errors.As(err, &gwErr) && gwErr.Message != "" {
			msg = gwErr.Message
		}
		return nil, apperrors.Internal(msg, err)
	}

	s.count(ctx, awspkg.MetricPaymentInitialized, "initialize")
	return &models.InitializeResult{Status: resp.Status, Message: resp.Message, Data: resp.Data}, nil
}

func (s *paymentServiceImpl) Verify(ctx context.Context, req *models.VerifyRequest) (*models.VerificationResult, error) {
	if req == nil {
		return nil, apperrors.InvalidArgument(msgVerifyInvalid)
	}
	r := *req
	r.Reference = strings.TrimSpace(r.Reference)
	r.UserID = strings.TrimSpace(r.UserID)
	if err := s.validate.Struct(&r); err != nil {
		s.logger.Debug("Verify request rejected", zap.Error(err))
		return nil, apperrors.InvalidArgument(msgVerifyInvalid)
	}
	req = &r
	log := s.logger.With(zap.String("reference", req.Reference), zap.String("user_id", req.UserID))

	v, err := s.gateway.VerifyTransaction(ctx, req.Reference)
	if err != nil {
		return nil, s.verifyFailed(ctx, log, "Gateway verification call failed", err)
	}
	if v.Data.Status != "success" {
		return nil, s.verifyFailed(ctx, log, "Transaction not successful", errors.New("gateway status "+v.Data.Status))
	}

	split := s.opts.Rates.Apply(ToMajorUnits(v.Data.Amount, s.opts.FXRate))

	tx := &docstore.Transaction{
		Reference:             req.Reference,
		UserID:                req.UserID,
		Role:                  req.Role,
		Amount:                split.Amount.InexactFloat64(),
		Currency:              s.opts.Currency,
		CaregiverCommission:   split.CaregiverCommission.InexactFloat64(),
		ClientFee:             split.ClientFee.InexactFloat64(),
		TotalRevenue:          split.TotalRevenue.InexactFloat64(),
		CommissionRateVersion: s.opts.Rates.Version,
		CaregiverRate:         s.opts.Rates.CaregiverRate.InexactFloat64(),
		ClientRate:            s.opts.Rates.ClientRate.InexactFloat64(),
		Status:                v.Data.Status,
		PaymentType:           v.Data.Channel,
		GatewayPayload:        v.Raw,
	}
	if err := s.store.PutTransaction(ctx, tx); err != nil {
		return nil, s.verifyFailed(ctx, log, "Failed to save transaction", err)
	}

	data := models.VerificationData{
		Reference:             tx.Reference,
		Status:                tx.Status,
		Amount:                tx.Amount,
		Currency:              tx.Currency,
		CaregiverCommission:   tx.CaregiverCommission,
		ClientFee:             tx.ClientFee,
		TotalRevenue:          tx.TotalRevenue,
		CommissionRateVersion: tx.CommissionRateVersion,
	}

	if req.Role == RoleCaregiver && split.Amount.GreaterThanOrEqual(s.threshold) {
		since := s.opts.Now().UTC()
		expiry := since.Add(PremiumPeriod)
		if err := s.store.ActivatePremium(ctx, req.UserID, since, expiry); err != nil {
			return nil, s.verifyFailed(ctx, log, "Failed to activate premium", err)
		}
		data.PremiumActivated = true
		data.PremiumExpiry = &expiry
		log.Info("Premium activated", zap.Time("premium_expiry", expiry))
	}

	log.Info("Transaction verified",
		zap.Float64("amount", tx.Amount),
		zap.Float64("total_revenue", tx.TotalRevenue),
		zap.String("rate_version", tx.CommissionRateVersion),
	)

	s.count(ctx, awspkg.MetricPaymentVerified, "verify")
	if s.metrics != nil {
		_ = s.metrics.RecordValue(ctx, awspkg.MetricPlatformRevenue, tx.TotalRevenue, map[string]string{"Service": "payment-service", "Currency": tx.Currency})
	}
	s.publish(ctx, models.EventPaymentVerified, req, data)
	if data.PremiumActivated {
		s.count(ctx, awspkg.MetricPremiumActivated, "verify")
		s.publish(ctx, models.EventPremiumActivated, req, data)
	}

	return &models.VerificationResult{Success: true, Message: msgVerified, Data: data}, nil
}

func (s *paymentServiceImpl) verifyFailed(ctx context.Context, log *zap.Logger, msg string, err error) error {
	log.Error(msg, zap.Error(err))
	s.count(ctx, awspkg.MetricPaymentFailed, "verify")
	return apperrors.Internal(msgVerifyFailed, err)
}

func (s *paymentServiceImpl) count(ctx context.Context, metric, operation string) {
	if s.metrics == nil {
		return
	}
	_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Service": "payment-service", "Operation": operation})
}

// publish is best effort: a failed publish never fails the verification.
func (s *paymentServiceImpl) publish(ctx context.Context, eventType string, req *models.VerifyRequest, data models.VerificationData) {
	if s.events == nil || s.opts.TopicArn == "" {
		return
	}
	payload, _ := json.Marshal(models.PaymentEvent{
		Type:             eventType,
		Reference:        data.Reference,
		UserID:           req.UserID,
		Role:             req.Role,
		Amount:           data.Amount,
		Currency:         data.Currency,
		TotalRevenue:     data.TotalRevenue,
		PremiumActivated: data.PremiumActivated,
		PremiumExpiry:    data.PremiumExpiry,
		Timestamp:        s.opts.Now().UTC(),
	})
	if err := s.events.PublishEvent(ctx, s.opts.TopicArn, eventType, payload); err != nil {
		s.logger.Error("Failed to publish payment event to SNS",
			zap.String("event_type", eventType),
			zap.String("reference", data.Reference),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("Payment event published to SNS",
		zap.String("event_type", eventType),
		zap.String("reference", data.Reference),
	)
}
