package mailer

import (
	"context"
	"errors"
	"stock-notification-service/app/domain"
	"stock-notification-service/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(send sendFunc) *smtpNotifier {
	n := NewSmtpNotifier(config.SmtpConfig{
		Host:           "smtp.example.com",
		Port:           "587",
		From:           "noreply@example.com",
		TimeoutSeconds: 5,
	}).(*smtpNotifier)
	n.now = func() time.Time { return time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC) }
	n.send = send
	return n
}

func TestSendStockAlertBuildsMessage(t *testing.T) {
	var (
		gotTo  string
		gotMsg string
		hasDL  bool
	)
	n := newTestNotifier(func(ctx context.Context, to string, msg []byte) error {
		_, hasDL = ctx.Deadline()
		gotTo = to
		gotMsg = string(msg)
		return nil
	})

	err := n.SendStockAlert(context.Background(), "user@one.com", domain.Product{ID: 1, Title: "product_1", UPC: "000000000001"})
	require.NoError(t, err)

	assert.True(t, hasDL)
	assert.Equal(t, "user@one.com", gotTo)
	assert.Contains(t, gotMsg, "From: noreply@example.com\r\n")
	assert.Contains(t, gotMsg, "To: user@one.com\r\n")
	assert.Contains(t, gotMsg, "Subject: product_1 is back in stock\r\n")
	assert.Contains(t, gotMsg, "UPC: 000000000001")
	assert.Contains(t, gotMsg, "Date: Thu, 15 Oct 2026 08:00:00 +0000\r\n")
}

func TestSendStockAlertUntitledProduct(t *testing.T) {
	var gotMsg string
	n := newTestNotifier(func(_ context.Context, _ string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	})

	require.NoError(t, n.SendStockAlert(context.Background(), "a@test.com", domain.Product{ID: 9}))
	assert.Contains(t, gotMsg, "Product #9 is back in stock")
	assert.NotContains(t, gotMsg, "UPC:")
}

func TestSendStockAlertRejectsHeaderInjection(t *testing.T) {
	called := false
	n := newTestNotifier(func(context.Context, string, []byte) error {
		called = true
		return nil
	})

	err := n.SendStockAlert(context.Background(), "a@test.com\r\nBcc: evil@test.com", domain.Product{ID: 1})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestSendStockAlertPropagatesFailure(t *testing.T) {
	n := newTestNotifier(func(context.Context, string, []byte) error {
		return errors.New("451 try again later")
	})

	err := n.SendStockAlert(context.Background(), "a@test.com", domain.Product{ID: 1, Title: "x"})
	assert.EqualError(t, err, "451 try again later")
}
