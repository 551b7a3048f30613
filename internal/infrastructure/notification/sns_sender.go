// Package notification delivers SMS and email side effects for the
// voucher lifecycle.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	voucherapp "github.com/vres/backend/internal/application/voucher"
	infraconfig "github.com/vres/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ voucherapp.NotificationSender = (*SNSSender)(nil)

// SNSSender delivers SMS through AWS SNS direct publish.
type SNSSender struct {
	client   *sns.Client
	senderID string
	logger   *zap.Logger
}

// NewSNSSender creates an SNSSender from configuration
func NewSNSSender(cfg *infraconfig.SMSConfig, logger *zap.Logger) (*SNSSender, error) {
	if cfg == nil {
		return nil, errors.New("SMS configuration is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	return &SNSSender{
		client:   sns.NewFromConfig(awsCfg),
		senderID: cfg.SenderID,
		logger:   logger,
	}, nil
}

// SendSMS publishes a transactional SMS to a single phone number
func (s *SNSSender) SendSMS(ctx context.Context, phone, message string) error {
	if phone == "" {
		return errors.New("phone number is required")
	}
	if message == "" {
		return errors.New("message is required")
	}

	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("failed to publish SMS: %w", err)
	}

	s.logger.Debug("SMS published",
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
