package voucher

import "context"

// ObjectStorage is the blob store holding rendered QR images.
// Upload returns a durable retrieval link; Download resolves it back.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Download(ctx context.Context, link string) ([]byte, error)
}

// QREncoder renders a voucher code into a raster QR image
type QREncoder interface {
	Encode(code string, size int) ([]byte, error)
}

// NotificationSender delivers short messages to beneficiaries and staff.
// Delivery is best-effort; callers must never fail an operation on a send error.
type NotificationSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// EmailSender delivers operational emails to staff
type EmailSender interface {
	SendEmail(ctx context.Context, to []string, subject, body string) error
}

// AttemptLimiter throttles repeated attempts against a key.
// Allow reports whether another attempt is permitted inside the current window.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Dispatcher runs side-effect tasks detached from the calling request.
// Used for notification delivery after a state change has committed.
type Dispatcher interface {
	Dispatch(name string, task func(ctx context.Context))
}
