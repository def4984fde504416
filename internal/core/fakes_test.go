package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"enrollhub-backend-go/internal/db"
	"enrollhub-backend-go/internal/gateway"
	"enrollhub-backend-go/internal/identity"
	"enrollhub-backend-go/internal/models"
)

// fakeGateway records payment-link requests and answers with synthetic links.
type fakeGateway struct {
	mu    sync.Mutex
	calls []gateway.CreatePaymentLinkRequest
	err   error
}

func (g *fakeGateway) CreatePaymentLink(_ context.Context, req gateway.CreatePaymentLinkRequest) (*gateway.PaymentLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.calls = append(g.calls, req)
	return &gateway.PaymentLink{
		URL:            "https://square.link/" + req.IdempotencyKey,
		GatewayOrderID: fmt.Sprintf("ORD%03d", len(g.calls)),
		IdempotencyKey: req.IdempotencyKey,
	}, nil
}

// fakeIdentity is an in-memory identity provider keyed by email.
type fakeIdentity struct {
	mu          sync.Mutex
	accounts    map[string]string // email -> account ID
	createCalls int
	createErr   error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{accounts: map[string]string{}}
}

func (p *fakeIdentity) CreateAccount(_ context.Context, email, secret, displayName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls++
	if p.createErr != nil {
		return "", p.createErr
	}
	if _, exists := p.accounts[email]; exists {
		return "", fmt.Errorf("%w: %s", identity.ErrAccountExists, email)
	}
	accountID := fmt.Sprintf("uid-%d", len(p.accounts)+1)
	p.accounts[email] = accountID
	return accountID, nil
}

func (p *fakeIdentity) LookupByEmail(_ context.Context, email string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	accountID, exists := p.accounts[email]
	if !exists {
		return "", fmt.Errorf("%w: %s", identity.ErrAccountNotFound, email)
	}
	return accountID, nil
}

// fakeEnrollmentRepo is an in-memory db.EnrollmentRepository.
type fakeEnrollmentRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.Enrollment
	upsertErr error
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{byID: map[string]*models.Enrollment{}}
}

func (r *fakeEnrollmentRepo) GetByID(_ context.Context, accountID string) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	enrollment, ok := r.byID[accountID]
	if !ok {
		return nil, fmt.Errorf("enrollment for account %q: %w", accountID, db.ErrNotFound)
	}
	copied := *enrollment
	return &copied, nil
}

func (r *fakeEnrollmentRepo) GetByOrderID(_ context.Context, orderID string) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, enrollment := range r.byID {
		if enrollment.GatewayOrderID == orderID {
			copied := *enrollment
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("enrollment for order %q: %w", orderID, db.ErrNotFound)
}

func (r *fakeEnrollmentRepo) Upsert(_ context.Context, enrollment *models.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	copied := *enrollment
	copied.CreatedAt = time.Now().UTC()
	r.byID[enrollment.ID] = &copied
	return nil
}

func (r *fakeEnrollmentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// fakeNotificationRepo is an in-memory db.NotificationRepository with
// working listeners, so feed semantics are observable in tests.
type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications map[string]*models.Notification
	seq           int
	listeners     map[int]*fakeFeedListener
	listenerSeq   int
}

type fakeFeedListener struct {
	recipientID string
	limit       int
	onUpdate    func([]*models.Notification)
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		notifications: map[string]*models.Notification{},
		listeners:     map[int]*fakeFeedListener{},
	}
}

func (r *fakeNotificationRepo) snapshotLocked(recipientID string, limit int) []*models.Notification {
	var out []*models.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			copied := *n
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []*models.Notification{}
	}
	return out
}

// notify fans the current snapshot out to matching listeners. Callbacks run
// outside the lock so they may call back into the repo.
func (r *fakeNotificationRepo) notify(recipientID string) {
	r.mu.Lock()
	type delivery struct {
		onUpdate func([]*models.Notification)
		snapshot []*models.Notification
	}
	var deliveries []delivery
	for _, l := range r.listeners {
		if l.recipientID == recipientID {
			deliveries = append(deliveries, delivery{l.onUpdate, r.snapshotLocked(recipientID, l.limit)})
		}
	}
	r.mu.Unlock()
	for _, d := range deliveries {
		d.onUpdate(d.snapshot)
	}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) (string, error) {
	r.mu.Lock()
	r.seq++
	id := fmt.Sprintf("n-%d", r.seq)
	copied := *n
	copied.ID = id
	copied.CreatedAt = time.Unix(int64(r.seq), 0)
	r.notifications[id] = &copied
	recipientID := copied.RecipientID
	r.mu.Unlock()
	r.notify(recipientID)
	return id, nil
}

func (r *fakeNotificationRepo) ExistsForOrder(_ context.Context, recipientID, orderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && n.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) GetRecent(_ context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(recipientID, limit), nil
}

func (r *fakeNotificationRepo) Listen(_ context.Context, recipientID string, limit int, onUpdate func([]*models.Notification), _ func(error)) func() {
	r.mu.Lock()
	r.listenerSeq++
	id := r.listenerSeq
	r.listeners[id] = &fakeFeedListener{recipientID: recipientID, limit: limit, onUpdate: onUpdate}
	initial := r.snapshotLocked(recipientID, limit)
	r.mu.Unlock()

	// Initial snapshot fires once, before any further mutation.
	onUpdate(initial)

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, recipientID, notificationID string) error {
	r.mu.Lock()
	n, ok := r.notifications[notificationID]
	if ok && n.RecipientID != recipientID {
		r.mu.Unlock()
		return fmt.Errorf("notification %q: %w", notificationID, db.ErrForbidden)
	}
	if ok {
		n.Read = true
	}
	r.mu.Unlock()
	if ok {
		r.notify(recipientID)
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, recipientID string) (int, error) {
	r.mu.Lock()
	count := 0
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			count++
		}
	}
	r.mu.Unlock()
	if count > 0 {
		r.notify(recipientID)
	}
	return count, nil
}

func (r *fakeNotificationRepo) DeleteOne(_ context.Context, recipientID, notificationID string) error {
	r.mu.Lock()
	n, ok := r.notifications[notificationID]
	if ok && n.RecipientID != recipientID {
		r.mu.Unlock()
		return fmt.Errorf("notification %q: %w", notificationID, db.ErrForbidden)
	}
	if ok {
		delete(r.notifications, notificationID)
	}
	r.mu.Unlock()
	if ok {
		r.notify(recipientID)
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteAll(_ context.Context, recipientID string) (int, error) {
	r.mu.Lock()
	count := 0
	for id, n := range r.notifications {
		if n.RecipientID == recipientID {
			delete(r.notifications, id)
			count++
		}
	}
	r.mu.Unlock()
	if count > 0 {
		r.notify(recipientID)
	}
	return count, nil
}

// fakeSettingsRepo is an in-memory db.SettingsRepository with key-level
// merge semantics.
type fakeSettingsRepo struct {
	mu   sync.Mutex
	docs map[string]map[string]interface{}
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{docs: map[string]map[string]interface{}{}}
}

func (r *fakeSettingsRepo) Get(_ context.Context, userID string) (*models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	values, ok := r.docs[userID]
	if !ok {
		return nil, fmt.Errorf("settings for user %q: %w", userID, db.ErrNotFound)
	}
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &models.Settings{UserID: userID, Values: copied}, nil
}

func (r *fakeSettingsRepo) Merge(_ context.Context, userID string, values map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[userID]
	if !ok {
		doc = map[string]interface{}{}
		r.docs[userID] = doc
	}
	for k, v := range values {
		doc[k] = v
	}
	return nil
}

// fakeAuditRepo records audit entries in memory.
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}
