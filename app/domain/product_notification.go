package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type NotificationStatus string

const (
	NotificationStatusUnconfirmed NotificationStatus = "UNCONFIRMED"
	NotificationStatusActive      NotificationStatus = "ACTIVE"
	NotificationStatusInactive    NotificationStatus = "INACTIVE"
)

func (s NotificationStatus) Valid() bool {
	switch s {
	case NotificationStatusUnconfirmed, NotificationStatusActive, NotificationStatusInactive:
		return true
	}
	return false
}

// Recipient is either a RegisteredUser or a LiteralAddress.
type Recipient interface {
	recipient()
}

type RegisteredUser struct {
	UserID int64
}

type LiteralAddress struct {
	Email string
}

func (RegisteredUser) recipient() {}
func (LiteralAddress) recipient() {}

// ProductNotification is a request to be emailed once the product is back in stock.
type ProductNotification struct {
	ID           int64              `json:"id"`
	UserID       *int64             `json:"user_id,omitempty"`
	Email        string             `json:"email,omitempty"`
	ProductID    int64              `json:"product_id"`
	Status       NotificationStatus `json:"status"`
	DateNotified *time.Time         `json:"date_notified,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewProductNotification returns an unconfirmed notification for productID.
func NewProductNotification(productID int64, to Recipient) (*ProductNotification, error) {
	n := &ProductNotification{
		ProductID: productID,
		Status:    NotificationStatusUnconfirmed,
	}

	switch r := to.(type) {
	case RegisteredUser:
		userID := r.UserID
		n.UserID = &userID
	case LiteralAddress:
		n.Email = strings.TrimSpace(r.Email)
	default:
		return nil, fmt.Errorf("%w: recipient is required", ErrValidation)
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *ProductNotification) IsActive() bool {
	return n.Status == NotificationStatusActive
}

func (n *ProductNotification) IsConfirmed() bool {
	return n.Status != NotificationStatusUnconfirmed
}

// Recipient reports who the notification is addressed to. Exactly one of
// UserID and Email must be set.
func (n *ProductNotification) Recipient() (Recipient, error) {
	hasUser := n.UserID != nil && *n.UserID != 0
	hasEmail := strings.TrimSpace(n.Email) != ""

	switch {
	case hasUser && hasEmail:
		return nil, fmt.Errorf("%w: notification %d has both user and email", ErrUnresolvableAddress, n.ID)
	case hasUser:
		return RegisteredUser{UserID: *n.UserID}, nil
	case hasEmail:
		return LiteralAddress{Email: strings.TrimSpace(n.Email)}, nil
	default:
		return nil, fmt.Errorf("%w: notification %d has neither user nor email", ErrUnresolvableAddress, n.ID)
	}
}

// NotificationEmail resolves the address to send to. Registered users are
// looked up in users so the current address is used.
func (n *ProductNotification) NotificationEmail(ctx context.Context, users UserDirectory) (string, error) {
	to, err := n.Recipient()
	if err != nil {
		return "", err
	}

	switch r := to.(type) {
	case LiteralAddress:
		return r.Email, nil
	case RegisteredUser:
		email, err := users.GetEmailByID(ctx, r.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return "", fmt.Errorf("%w: user %d not found", ErrUnresolvableAddress, r.UserID)
			}
			return "", fmt.Errorf("%w: lookup user %d: %w", ErrStoreFailure, r.UserID, err)
		}
		email = strings.TrimSpace(email)
		if email == "" {
			return "", fmt.Errorf("%w: user %d has no email", ErrUnresolvableAddress, r.UserID)
		}
		return email, nil
	}

	return "", fmt.Errorf("%w: unknown recipient %T", ErrUnresolvableAddress, to)
}

// Confirm moves an unconfirmed notification to active.
func (n *ProductNotification) Confirm() error {
	if n.Status != NotificationStatusUnconfirmed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, n.Status, NotificationStatusActive)
	}
	n.Status = NotificationStatusActive
	return nil
}

// MarkNotified moves an active notification to inactive and records when
// the email went out.
func (n *ProductNotification) MarkNotified(at time.Time) error {
	if n.Status != NotificationStatusActive {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, n.Status, NotificationStatusInactive)
	}
	notified := at
	n.Status = NotificationStatusInactive
	n.DateNotified = &notified
	return nil
}

func (n *ProductNotification) Validate() error {
	if !n.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, n.Status)
	}
	if n.ProductID <= 0 {
		return fmt.Errorf("%w: product is required", ErrValidation)
	}
	if _, err := n.Recipient(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if (n.Status == NotificationStatusInactive) != (n.DateNotified != nil) {
		return fmt.Errorf("%w: date_notified must be set exactly when status is %s", ErrValidation, NotificationStatusInactive)
	}
	return nil
}

type ProductNotificationCreateRequest struct {
	ProductID int64              `json:"product_id" validate:"required,gt=0"`
	UserID    *int64             `json:"user_id" validate:"required_without=Email,omitempty,gt=0"`
	Email     string             `json:"email" validate:"required_without=UserID,omitempty,email"`
	Status    NotificationStatus `json:"status" validate:"omitempty,oneof=UNCONFIRMED ACTIVE"`
}

type ProductNotificationRepository interface {
	Create(ctx context.Context, n *ProductNotification) error
	GetByID(ctx context.Context, id int64) (ProductNotification, error)
	// GetByProductIDAndStatus returns notifications ordered by id ascending.
	GetByProductIDAndStatus(ctx context.Context, productID int64, status NotificationStatus) ([]ProductNotification, error)
	GetByUserID(ctx context.Context, userID int64) ([]ProductNotification, error)
	LockForUpdate(ctx context.Context, id int64, tx *sql.Tx) (ProductNotification, error)
	UpdateStatus(ctx context.Context, n ProductNotification, tx *sql.Tx) error
	// MarkNotified transitions id to INACTIVE only if it is still ACTIVE and
	// reports whether a row changed.
	MarkNotified(ctx context.Context, id int64, at time.Time) (bool, error)

	WithTransaction(ctx context.Context, fn func(context.Context, *sql.Tx) error) error
}

type ProductNotificationService interface {
	Create(ctx context.Context, req ProductNotificationCreateRequest) (*ProductNotification, error)
	GetByProductID(ctx context.Context, productID int64, status NotificationStatus) ([]ProductNotification, error)
	GetByUserID(ctx context.Context, userID int64) ([]ProductNotification, error)
}
