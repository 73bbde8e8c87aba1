package usecase

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"slices"
	"stock-notification-service/app/domain"
	"sync"
	"time"
)

var errCommit = errors.New("commit failed")

// memoryNotificationRepo serializes transactions the way row locks would and
// restores its snapshot when a transaction fails.
type memoryNotificationRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex

	rows   map[int64]domain.ProductNotification
	nextID int64

	corruptOnLock    map[int64]domain.NotificationStatus
	failCommits      int
	failUpdateStatus int
	failMarkNotified int
	markNotifiedHits int
}

func newMemoryNotificationRepo() *memoryNotificationRepo {
	return &memoryNotificationRepo{rows: map[int64]domain.ProductNotification{}}
}

func (r *memoryNotificationRepo) add(n domain.ProductNotification) domain.ProductNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	r.rows[n.ID] = n
	return n
}

func (r *memoryNotificationRepo) get(id int64) domain.ProductNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

func (r *memoryNotificationRepo) Create(_ context.Context, n *domain.ProductNotification) error {
	*n = r.add(*n)
	return nil
}

func (r *memoryNotificationRepo) GetByID(_ context.Context, id int64) (domain.ProductNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.rows[id]
	if !ok {
		return n, domain.ErrNotFound
	}
	return n, nil
}

func (r *memoryNotificationRepo) GetByProductIDAndStatus(_ context.Context, productID int64, status domain.NotificationStatus) ([]domain.ProductNotification, error) {
	return r.filter(func(n domain.ProductNotification) bool {
		return n.ProductID == productID && (status == "" || n.Status == status)
	}), nil
}

func (r *memoryNotificationRepo) GetByUserID(_ context.Context, userID int64) ([]domain.ProductNotification, error) {
	return r.filter(func(n domain.ProductNotification) bool {
		return n.UserID != nil && *n.UserID == userID
	}), nil
}

func (r *memoryNotificationRepo) filter(keep func(domain.ProductNotification) bool) []domain.ProductNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProductNotification
	for _, id := range slices.Sorted(maps.Keys(r.rows)) {
		if keep(r.rows[id]) {
			out = append(out, r.rows[id])
		}
	}
	return out
}

func (r *memoryNotificationRepo) LockForUpdate(ctx context.Context, id int64, _ *sql.Tx) (domain.ProductNotification, error) {
	n, err := r.GetByID(ctx, id)
	if status, ok := r.corruptOnLock[id]; ok {
		n.Status = status
	}
	return n, err
}

func (r *memoryNotificationRepo) UpdateStatus(_ context.Context, n domain.ProductNotification, _ *sql.Tx) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdateStatus > 0 {
		r.failUpdateStatus--
		return errors.New("update failed")
	}
	if _, ok := r.rows[n.ID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[n.ID] = n
	return nil
}

func (r *memoryNotificationRepo) MarkNotified(_ context.Context, id int64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markNotifiedHits++
	if r.failMarkNotified > 0 {
		r.failMarkNotified--
		return false, errors.New("mark notified failed")
	}
	n, ok := r.rows[id]
	if !ok || n.Status != domain.NotificationStatusActive {
		return false, nil
	}
	n.Status = domain.NotificationStatusInactive
	n.DateNotified = &at
	r.rows[id] = n
	return true, nil
}

func (r *memoryNotificationRepo) WithTransaction(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := maps.Clone(r.rows)
	r.mu.Unlock()

	err := fn(ctx, nil)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil && r.failCommits > 0 {
		r.failCommits--
		err = errCommit
	}
	if err != nil {
		r.rows = snapshot
	}
	return err
}

type memoryProductRepo map[int64]domain.Product

func (r memoryProductRepo) GetByID(_ context.Context, id int64) (domain.Product, error) {
	p, ok := r[id]
	if !ok {
		return p, domain.ErrNotFound
	}
	return p, nil
}

type memoryUserDirectory map[int64]string

func (d memoryUserDirectory) GetEmailByID(_ context.Context, userID int64) (string, error) {
	email, ok := d[userID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return email, nil
}

type sentEmail struct {
	To        string
	ProductID int64
}

// recordingNotifier stands in for the mail outbox.
type recordingNotifier struct {
	mu     sync.Mutex
	sent   []sentEmail
	failTo map[string]error
}

func (n *recordingNotifier) SendStockAlert(_ context.Context, address string, product domain.Product) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.failTo[address]; ok {
		return err
	}
	n.sent = append(n.sent, sentEmail{To: address, ProductID: product.ID})
	return nil
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, e := range n.sent {
		out = append(out, e.To)
	}
	return out
}

type memoryStockRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex

	rows map[int64]domain.Stock
}

func newMemoryStockRepo(stocks ...domain.Stock) *memoryStockRepo {
	r := &memoryStockRepo{rows: map[int64]domain.Stock{}}
	for _, s := range stocks {
		r.rows[s.ID] = s
	}
	return r
}

func (r *memoryStockRepo) GetByID(_ context.Context, id int64) (domain.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return s, domain.ErrNotFound
	}
	return s, nil
}

func (r *memoryStockRepo) GetByProductID(_ context.Context, productID int64) ([]domain.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Stock
	for _, id := range slices.Sorted(maps.Keys(r.rows)) {
		if r.rows[id].ProductID == productID {
			out = append(out, r.rows[id])
		}
	}
	return out, nil
}

func (r *memoryStockRepo) LockForUpdate(ctx context.Context, id int64, _ *sql.Tx) (domain.Stock, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryStockRepo) UpdateQuantity(_ context.Context, id, quantity, version int64, _ *sql.Tx) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if s.Version != version {
		return domain.ErrVersionMismatch
	}
	s.Quantity = quantity
	s.Version++
	r.rows[id] = s
	return nil
}

func (r *memoryStockRepo) GetAvailableStockByProductID(_ context.Context, productID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, s := range r.rows {
		if s.ProductID == productID {
			total += s.Quantity
		}
	}
	return total, nil
}

func (r *memoryStockRepo) WithTransaction(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(ctx, nil)
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []domain.StockMessage
	err      error
}

func (p *recordingPublisher) PublishStockAvailable(_ context.Context, data domain.StockMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, data)
	return nil
}

type dispatchCall struct {
	ProductID, Previous, New int64
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

func (d *recordingDispatcher) OnStockChange(_ context.Context, productID, previousLevel, newLevel int64) (domain.DispatchReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{productID, previousLevel, newLevel})
	return domain.DispatchReport{ProductID: productID}, d.err
}
