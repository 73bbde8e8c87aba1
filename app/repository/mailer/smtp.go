package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"stock-notification-service/app/domain"
	"stock-notification-service/config"
	"strings"
	"time"
)

type sendFunc func(ctx context.Context, to string, msg []byte) error

type smtpNotifier struct {
	cfg     config.SmtpConfig
	timeout time.Duration
	send    sendFunc
	now     func() time.Time
}

func NewSmtpNotifier(cfg config.SmtpConfig) domain.Notifier {
	n := &smtpNotifier{
		cfg:     cfg,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		now:     time.Now,
	}
	n.send = n.deliver
	return n
}

func (n *smtpNotifier) SendStockAlert(ctx context.Context, address string, product domain.Product) error {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	msg, err := n.buildMessage(address, product)
	if err != nil {
		slog.ErrorContext(ctx, "[smtpNotifier] SendStockAlert", "buildMessage", err)
		return err
	}

	if err := n.send(ctx, address, msg); err != nil {
		slog.ErrorContext(ctx, "[smtpNotifier] SendStockAlert", "send", err, "productID", product.ID)
		return err
	}

	slog.InfoContext(ctx, "[smtpNotifier] SendStockAlert", "productID", product.ID)
	return nil
}

func (n *smtpNotifier) buildMessage(to string, product domain.Product) ([]byte, error) {
	if strings.ContainsAny(to, "\r\n") {
		return nil, fmt.Errorf("invalid recipient address")
	}

	title := product.Title
	if title == "" {
		title = fmt.Sprintf("Product #%d", product.ID)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", title+" is back in stock"))
	fmt.Fprintf(&buf, "Date: %s\r\n", n.now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	fmt.Fprintf(&buf, "Good news! %s is back in stock.\r\n", title)
	if product.UPC != "" {
		fmt.Fprintf(&buf, "UPC: %s\r\n", product.UPC)
	}
	buf.WriteString("\r\nYou are receiving this email because you asked to be notified when this product became available.\r\n")

	return buf.Bytes(), nil
}

func (n *smtpNotifier) deliver(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if n.cfg.Username != "" {
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}

	return client.Quit()
}
