package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/ports"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Tenants
// ---------------------------------------------------------------------------

type fakeTenants struct {
	tenants map[string]*domain.Tenant
	listErr error
}

func newFakeTenants(tenants ...*domain.Tenant) *fakeTenants {
	f := &fakeTenants{tenants: make(map[string]*domain.Tenant)}
	for _, t := range tenants {
		f.tenants[t.TenantID] = t
	}
	return f
}

func activeTenant(id string) *domain.Tenant {
	return &domain.Tenant{TenantID: id, ShopDomain: id + ".myshopify.com", IsActive: true}
}

func (f *fakeTenants) ListActive(ctx context.Context) ([]*domain.Tenant, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.Tenant
	for _, t := range f.tenants {
		if t.IsActive {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out, nil
}

func (f *fakeTenants) GetRequired(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	t, ok := f.tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTenantNotFound, tenantID)
	}
	return t, nil
}

func (f *fakeTenants) FindByShopDomain(ctx context.Context, shopDomain string) (*domain.Tenant, error) {
	for _, t := range f.tenants {
		if t.ShopDomain == shopDomain {
			return t, nil
		}
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Stores
// ---------------------------------------------------------------------------

type idSeq struct {
	mu sync.Mutex
	n  int
}

func (s *idSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

type memCustomers struct {
	ids       idSeq
	rows      map[string]*domain.Customer
	addresses map[string][]domain.CustomerAddress
}

func newMemCustomers() *memCustomers {
	return &memCustomers{
		rows:      make(map[string]*domain.Customer),
		addresses: make(map[string][]domain.CustomerAddress),
	}
}

func (m *memCustomers) FindByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.Customer, error) {
	for _, c := range m.rows {
		if c.TenantID == tenantID && c.ExternalID == externalID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memCustomers) Save(ctx context.Context, customer *domain.Customer) error {
	if customer.ID == "" {
		customer.ID = m.ids.next("cust")
	}
	cp := *customer
	cp.Addresses = nil
	m.rows[cp.ID] = &cp
	return nil
}

func (m *memCustomers) ReplaceAddresses(ctx context.Context, tenantID, customerID string, addresses []domain.CustomerAddress) error {
	for i := range addresses {
		addresses[i].ID = m.ids.next("addr")
	}
	m.addresses[customerID] = append([]domain.CustomerAddress(nil), addresses...)
	return nil
}

func (m *memCustomers) ListAddresses(ctx context.Context, tenantID, customerID string) ([]domain.CustomerAddress, error) {
	return m.addresses[customerID], nil
}

func (m *memCustomers) UpdateMetrics(ctx context.Context, tenantID, customerID string, totalSpent decimal.Decimal, ordersCount int) error {
	c, ok := m.rows[customerID]
	if !ok {
		return fmt.Errorf("customer %s not found", customerID)
	}
	c.TotalSpent = totalSpent
	c.OrdersCount = ordersCount
	return nil
}

func (m *memCustomers) count(tenantID string, externalID int64) int {
	n := 0
	for _, c := range m.rows {
		if c.TenantID == tenantID && c.ExternalID == externalID {
			n++
		}
	}
	return n
}

type memProducts struct {
	ids      idSeq
	rows     map[string]*domain.Product
	variants map[string][]domain.ProductVariant
}

func newMemProducts() *memProducts {
	return &memProducts{
		rows:     make(map[string]*domain.Product),
		variants: make(map[string][]domain.ProductVariant),
	}
}

func (m *memProducts) FindByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.Product, error) {
	for _, p := range m.rows {
		if p.TenantID == tenantID && p.ExternalID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memProducts) Save(ctx context.Context, product *domain.Product) error {
	if product.ID == "" {
		product.ID = m.ids.next("prod")
	}
	cp := *product
	cp.Variants = nil
	m.rows[cp.ID] = &cp
	return nil
}

func (m *memProducts) ReplaceVariants(ctx context.Context, tenantID, productID string, variants []domain.ProductVariant) error {
	for i := range variants {
		variants[i].ID = m.ids.next("var")
	}
	m.variants[productID] = append([]domain.ProductVariant(nil), variants...)
	return nil
}

func (m *memProducts) ListVariants(ctx context.Context, tenantID, productID string) ([]domain.ProductVariant, error) {
	return m.variants[productID], nil
}

func (m *memProducts) FindVariantByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.ProductVariant, error) {
	for _, vs := range m.variants {
		for _, v := range vs {
			if v.TenantID == tenantID && v.ExternalID == externalID {
				cp := v
				return &cp, nil
			}
		}
	}
	return nil, nil
}

type memOrders struct {
	ids       idSeq
	rows      map[string]*domain.Order
	lineItems map[string][]domain.OrderLineItem
}

func newMemOrders() *memOrders {
	return &memOrders{
		rows:      make(map[string]*domain.Order),
		lineItems: make(map[string][]domain.OrderLineItem),
	}
}

func (m *memOrders) FindByExternalID(ctx context.Context, tenantID string, externalID int64) (*domain.Order, error) {
	for _, o := range m.rows {
		if o.TenantID == tenantID && o.ExternalID == externalID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memOrders) Save(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = m.ids.next("ord")
	}
	cp := *order
	cp.LineItems = nil
	m.rows[cp.ID] = &cp
	return nil
}

func (m *memOrders) ReplaceLineItems(ctx context.Context, tenantID, orderID string, items []domain.OrderLineItem) error {
	for i := range items {
		items[i].ID = m.ids.next("li")
	}
	m.lineItems[orderID] = append([]domain.OrderLineItem(nil), items...)
	return nil
}

func (m *memOrders) ListLineItems(ctx context.Context, tenantID, orderID string) ([]domain.OrderLineItem, error) {
	return m.lineItems[orderID], nil
}

func (m *memOrders) ListByCustomer(ctx context.Context, tenantID, customerID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.rows {
		if o.TenantID == tenantID && o.CustomerID == customerID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memRuns struct {
	mu   sync.Mutex
	ids  idSeq
	rows []*domain.SyncRun
}

func (m *memRuns) Create(ctx context.Context, run *domain.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = m.ids.next("run")
	cp := *run
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memRuns) Finish(ctx context.Context, run *domain.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == run.ID {
			cp := *run
			m.rows[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("run %s not found", run.ID)
}

func (m *memRuns) ListRecent(ctx context.Context, tenantID string, limit int) ([]*domain.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.SyncRun
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if tenantID == "" || m.rows[i].TenantID == tenantID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memRuns) all() []*domain.SyncRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.SyncRun(nil), m.rows...)
}

// ---------------------------------------------------------------------------
// Fetcher
// ---------------------------------------------------------------------------

type fetchCall struct {
	tenantID string
	path     string
	limit    int
	filters  map[string]string
}

// fakeFetcher serves canned pages per resource path
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string][][]string
	errs  map[string]error
	calls []fetchCall
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: make(map[string][][]string), errs: make(map[string]error)}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, tenantID, resourcePath string, limit int, cursor string, filters map[string]string) (*domain.Page, error) {
	return nil, fmt.Errorf("not used")
}

func (f *fakeFetcher) IterateAll(ctx context.Context, tenantID, resourcePath string, limit int, filters map[string]string, handle ports.PageHandler) error {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{tenantID: tenantID, path: resourcePath, limit: limit, filters: filters})
	pages := f.pages[resourcePath]
	err := f.errs[resourcePath]
	f.mu.Unlock()

	if err != nil {
		return err
	}
	for _, page := range pages {
		items := make([]json.RawMessage, 0, len(page))
		for _, item := range page {
			items = append(items, json.RawMessage(item))
		}
		if err := handle(ctx, items); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeFetcher) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		out = append(out, c.path)
	}
	return out
}

// ---------------------------------------------------------------------------
// Locker, notifier, events, metrics
// ---------------------------------------------------------------------------

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) TryLock(ctx context.Context, tenantID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[tenantID] {
		return nil, domain.ErrSyncInProgress
	}
	l.held[tenantID] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, tenantID)
	}, nil
}

type notification struct {
	tenantID string
	segment  domain.Segment
	message  string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (n *recordingNotifier) Notify(ctx context.Context, tenantID string, segment domain.Segment, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{tenantID: tenantID, segment: segment, message: message})
}

type recordingEvents struct {
	mu     sync.Mutex
	events []*domain.SyncEvent
}

func (e *recordingEvents) Publish(event *domain.SyncEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

type recordingMetrics struct {
	nopMetrics
	mu   sync.Mutex
	jobs map[string]int
	size int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{jobs: make(map[string]int)}
}

func (m *recordingMetrics) ObserveJob(jobType, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[jobType+"/"+outcome]++
}

func (m *recordingMetrics) SetQueueRegistrySize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size = size
}

// ---------------------------------------------------------------------------
// Broker
// ---------------------------------------------------------------------------

type rejected struct {
	delivery *ports.Delivery
	reason   string
}

// memBroker is an in-process QueueBroker with FIFO queues
type memBroker struct {
	mu         sync.Mutex
	declared   map[string]ports.QueueSpec
	queues     map[string][][]byte
	known      []string
	acked      []*ports.Delivery
	rejected   []rejected
	declareErr error
	knownErr   error
	publishErr map[string]error
	declares   int
}

func newMemBroker() *memBroker {
	return &memBroker{
		declared: make(map[string]ports.QueueSpec),
		queues:   make(map[string][][]byte),
	}
}

func (b *memBroker) DeclareQueue(ctx context.Context, spec ports.QueueSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.declares++
	if b.declareErr != nil {
		return b.declareErr
	}
	b.declared[spec.Name] = spec
	return nil
}

func (b *memBroker) KnownQueues(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.knownErr != nil {
		return nil, b.knownErr
	}
	return append([]string(nil), b.known...), nil
}

func (b *memBroker) Publish(ctx context.Context, queue string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.publishErr[queue]; err != nil {
		return err
	}
	b.queues[queue] = append(b.queues[queue], body)
	return nil
}

func (b *memBroker) Receive(ctx context.Context, queues []string, wait time.Duration) (*ports.Delivery, error) {
	deadline := time.Now().Add(wait)
	for {
		b.mu.Lock()
		for _, q := range queues {
			if msgs := b.queues[q]; len(msgs) > 0 {
				b.queues[q] = msgs[1:]
				b.mu.Unlock()
				return &ports.Delivery{Queue: q, Body: msgs[0]}, nil
			}
		}
		b.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (b *memBroker) Ack(ctx context.Context, delivery *ports.Delivery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acked = append(b.acked, delivery)
	return nil
}

func (b *memBroker) Reject(ctx context.Context, delivery *ports.Delivery, reason string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejected = append(b.rejected, rejected{delivery: delivery, reason: reason})
	return nil
}

func (b *memBroker) Close() error { return nil }

func (b *memBroker) messages(queue string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.queues[queue]...)
}

func (b *memBroker) settled() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.acked), len(b.rejected)
}
