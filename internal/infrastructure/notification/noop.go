package notification

import (
	"context"

	voucherapp "github.com/vres/backend/internal/application/voucher"
	"go.uber.org/zap"
)

var (
	_ voucherapp.NotificationSender = (*LogSender)(nil)
	_ voucherapp.EmailSender        = (*LogSender)(nil)
)

// LogSender logs outgoing notifications instead of delivering them.
// Used when SMS or email delivery is disabled in configuration.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (l *LogSender) SendSMS(_ context.Context, phone, message string) error {
	l.logger.Info("SMS delivery disabled, logging instead",
		zap.String("phone", phone),
		zap.String("message", message))
	return nil
}

func (l *LogSender) SendEmail(_ context.Context, to []string, subject, _ string) error {
	l.logger.Info("Email delivery disabled, logging instead",
		zap.Strings("to", to),
		zap.String("subject", subject))
	return nil
}
