package notify

import (
	"context"

	"go.uber.org/zap"

	"Sahaya/pkg/logger"
)

// Log-only clients for deployments without real gateways wired. Delivery
// still flows through the full fan-out and audit path.

type LogSMSClient struct{}

func (LogSMSClient) Send(_ context.Context, phone, message string) error {
	logger.Info("sms (log-only)", zap.String("to", phone), zap.Int("len", len(message)))
	return nil
}

type LogMessengerClient struct{}

func (LogMessengerClient) Send(_ context.Context, phone, _ string, deepLink string) error {
	logger.Info("messenger (log-only)", zap.String("to", phone), zap.String("link", deepLink))
	return nil
}

type LogEmailClient struct{}

func (LogEmailClient) Send(_ context.Context, to, subject, _ string) error {
	logger.Info("email (log-only)", zap.String("to", to), zap.String("subject", subject))
	return nil
}

type LogPushClient struct{}

func (LogPushClient) Push(_ context.Context, userID, title, _ string) error {
	logger.Info("push (log-only)", zap.String("user", userID), zap.String("title", title))
	return nil
}

type LogAuthorityClient struct{}

func (LogAuthorityClient) Escalate(_ context.Context, payload []byte) error {
	logger.Error("AUTHORITY NOTIFICATION (log-only)", zap.ByteString("payload", payload))
	return nil
}
