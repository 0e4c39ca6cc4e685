package httpserver

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"knot-art-api/internal/cart"
	"knot-art-api/internal/domain"
	"knot-art-api/internal/pricing"
	orderrepo "knot-art-api/internal/repository/order"
	productrepo "knot-art-api/internal/repository/product"
	tokenrepo "knot-art-api/internal/repository/token"
	checkoutsvc "knot-art-api/internal/service/checkout"
	marketsvc "knot-art-api/internal/service/market"
	"knot-art-api/internal/service/payment"
	productsvc "knot-art-api/internal/service/product"
	profilesvc "knot-art-api/internal/service/profile"
	webhooksvc "knot-art-api/internal/service/webhook"
)

var testRule = pricing.Rule{FreeDeliveryThresholdCents: 5000, DeliveryPercentage: 10}

func newRecorder(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// memProducts implements the product repository in memory.
type memProducts struct {
	mu         sync.Mutex
	products   map[string]*domain.Product
	categories map[string]*domain.Category
	seq        int
}

func newMemProducts() *memProducts {
	return &memProducts{
		products:   make(map[string]*domain.Product),
		categories: make(map[string]*domain.Category),
	}
}

func (m *memProducts) add(p domain.Product) *domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if p.ID == "" {
		p.ID = fmt.Sprintf("prod-%d", m.seq)
	}
	m.products[p.ID] = &p
	return &p
}

func (m *memProducts) List(_ context.Context, filter productrepo.ListFilter) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.products {
		if !filter.IncludeInactive && !p.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	return m.add(p), nil
}

func (m *memProducts) Update(_ context.Context, p domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	m.products[p.ID] = &p
	return &p, nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memProducts) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	return m.add(p), nil
}

func (m *memProducts) ListCategories(_ context.Context) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Category
	for _, c := range m.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memProducts) EnsureCategory(_ context.Context, name, friendly string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.categories[name]; ok {
		return c, nil
	}
	c := &domain.Category{ID: "cat-" + name, Name: name, FriendlyName: friendly}
	m.categories[name] = c
	return c, nil
}

// memOrders implements the order repository in memory, recomputing
// header totals on each line item the way the real repository does.
type memOrders struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	lineItems map[string][]domain.OrderLineItem
	seq       int
}

func newMemOrders() *memOrders {
	return &memOrders{
		orders:    make(map[string]*domain.Order),
		lineItems: make(map[string][]domain.OrderLineItem),
	}
}

func (m *memOrders) Create(_ context.Context, o domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	o.ID = fmt.Sprintf("order-%d", m.seq)
	o.OrderNumber = domain.NewOrderNumber()
	o.CreatedAt = time.Now().UTC()
	m.orders[o.ID] = &o
	return &o, nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.withLines(o), nil
}

func (m *memOrders) GetByOrderNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == orderNumber {
			return m.withLines(o), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) withLines(o *domain.Order) *domain.Order {
	cp := *o
	cp.LineItems = append([]domain.OrderLineItem(nil), m.lineItems[o.ID]...)
	return &cp
}

func (m *memOrders) AddLineItem(_ context.Context, orderID string, product domain.Product, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	m.lineItems[orderID] = append(m.lineItems[orderID], domain.OrderLineItem{
		ID:             fmt.Sprintf("line-%d", len(m.lineItems[orderID])+1),
		OrderID:        orderID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		Quantity:       quantity,
		LineTotalCents: product.PriceCents * int64(quantity),
	})
	m.recompute(o)
	return nil
}

func (m *memOrders) recompute(o *domain.Order) {
	var subtotal int64
	for _, li := range m.lineItems[o.ID] {
		subtotal += li.LineTotalCents
	}
	o.OrderTotalCents = subtotal
	o.DeliveryCostCents, o.GrandTotalCents = testRule.Totals(subtotal)
}

func (m *memOrders) Delete(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[orderID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.orders, orderID)
	delete(m.lineItems, orderID)
	return nil
}

func (m *memOrders) FindMatching(_ context.Context, match orderrepo.Match) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.StripePID == match.StripePID &&
			o.OriginalCart == match.OriginalCart &&
			o.GrandTotalCents == match.GrandTotalCents &&
			strings.EqualFold(o.FullName, match.Details.FullName) {
			return m.withLines(o), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) AttachProfile(_ context.Context, orderID, profileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.ProfileID = &profileID
	return nil
}

func (m *memOrders) ListByProfile(_ context.Context, profileID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.ProfileID != nil && *o.ProfileID == profileID {
			out = append(out, *m.withLines(o))
		}
	}
	return out, nil
}

// memProfiles implements the profile repository in memory.
type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	seq      int
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: make(map[string]*domain.Profile)}
}

func (m *memProfiles) Create(_ context.Context, p domain.Profile) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.profiles {
		if existing.Username == p.Username || existing.Email == p.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	m.seq++
	p.ID = fmt.Sprintf("prof-%d", m.seq)
	p.CreatedAt = time.Now().UTC()
	m.profiles[p.ID] = &p
	return &p, nil
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) GetByUsername(_ context.Context, username string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Username == strings.ToLower(username) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memProfiles) SaveDefaults(_ context.Context, id string, d domain.DeliveryDefaults) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.DefaultPhoneNumber = d.PhoneNumber
	p.DefaultStreetAddress1 = d.StreetAddress1
	p.DefaultStreetAddress2 = d.StreetAddress2
	p.DefaultTownOrCity = d.TownOrCity
	p.DefaultPostcode = d.Postcode
	p.DefaultCounty = d.County
	p.DefaultCountry = d.Country
	return nil
}

// memTokens implements the token repository in memory.
type memTokens struct {
	mu     sync.Mutex
	tokens map[string]tokenrepo.Token
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[string]tokenrepo.Token)}
}

func (m *memTokens) Create(_ context.Context, t tokenrepo.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[t.Token]; ok {
		return domain.ErrAlreadyExists
	}
	m.tokens[t.Token] = t
	return nil
}

func (m *memTokens) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (m *memTokens) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

// memMarkets implements the market repository in memory.
type memMarkets struct {
	mu       sync.Mutex
	markets  map[string]*domain.Market
	comments map[string]*domain.Comment
	saved    map[string]map[string]bool
	seq      int
}

func newMemMarkets() *memMarkets {
	return &memMarkets{
		markets:  make(map[string]*domain.Market),
		comments: make(map[string]*domain.Comment),
		saved:    make(map[string]map[string]bool),
	}
}

func (m *memMarkets) List(_ context.Context, _ bool) ([]domain.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Market
	for _, mk := range m.markets {
		out = append(out, *mk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memMarkets) GetByID(_ context.Context, id string) (*domain.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk, ok := m.markets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mk
	return &cp, nil
}

func (m *memMarkets) Create(_ context.Context, mk domain.Market) (*domain.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	mk.ID = fmt.Sprintf("market-%d", m.seq)
	m.markets[mk.ID] = &mk
	return &mk, nil
}

func (m *memMarkets) Update(_ context.Context, mk domain.Market) (*domain.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.markets[mk.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	m.markets[mk.ID] = &mk
	return &mk, nil
}

func (m *memMarkets) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.markets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.markets, id)
	return nil
}

func (m *memMarkets) ListComments(_ context.Context, marketID string) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Comment
	for _, c := range m.comments {
		if c.MarketID == marketID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memMarkets) GetComment(_ context.Context, id string) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memMarkets) CreateComment(_ context.Context, c domain.Comment) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c.ID = fmt.Sprintf("comment-%d", m.seq)
	c.CreatedAt = time.Now().UTC()
	m.comments[c.ID] = &c
	return &c, nil
}

func (m *memMarkets) UpdateComment(_ context.Context, id, body string) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.Body = body
	cp := *c
	return &cp, nil
}

func (m *memMarkets) DeleteComment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *memMarkets) SaveMarket(_ context.Context, profileID, marketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved[profileID] == nil {
		m.saved[profileID] = make(map[string]bool)
	}
	if m.saved[profileID][marketID] {
		return domain.ErrAlreadyExists
	}
	m.saved[profileID][marketID] = true
	return nil
}

func (m *memMarkets) UnsaveMarket(_ context.Context, profileID, marketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved[profileID][marketID] {
		return domain.ErrNotFound
	}
	delete(m.saved[profileID], marketID)
	return nil
}

func (m *memMarkets) ListSaved(_ context.Context, profileID string) ([]domain.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Market
	for id := range m.saved[profileID] {
		if mk, ok := m.markets[id]; ok {
			out = append(out, *mk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// stubGateway implements payment.Gateway without touching Stripe.
type stubGateway struct {
	mu       sync.Mutex
	intents  []int64
	metadata map[string]payment.Metadata
}

func newStubGateway() *stubGateway {
	return &stubGateway{metadata: make(map[string]payment.Metadata)}
}

func (s *stubGateway) CreateIntent(_ context.Context, amountCents int64, _ string) (*payment.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents = append(s.intents, amountCents)
	return &payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret_abc"}, nil
}

func (s *stubGateway) AttachMetadata(_ context.Context, intentID string, md payment.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[intentID] = md
	return nil
}

type stubMailer struct {
	mu   sync.Mutex
	sent []string
}

func (s *stubMailer) SendOrderConfirmation(o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, o.OrderNumber)
	return nil
}

// testEnv wires real services over the in-memory repositories and
// builds the full router, so tests drive the stack over HTTP.
type testEnv struct {
	router   *gin.Engine
	products *memProducts
	orders   *memOrders
	profiles *memProfiles
	tokens   *memTokens
	markets  *memMarkets
	carts    *cart.Store
	gateway  *stubGateway
	mail     *stubMailer

	profileSvc *profilesvc.Service
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)
	logger := logDiscard()

	env := &testEnv{
		products: newMemProducts(),
		orders:   newMemOrders(),
		profiles: newMemProfiles(),
		tokens:   newMemTokens(),
		markets:  newMemMarkets(),
		carts:    cart.NewStore(),
		gateway:  newStubGateway(),
		mail:     &stubMailer{},
	}

	env.profileSvc = profilesvc.New(env.profiles, env.orders, env.tokens, logger)
	checkoutSvc := checkoutsvc.New(env.carts, env.orders, env.products, env.profiles, env.gateway, testRule, "usd", logger)
	webhookSvc := webhooksvc.New(env.orders, env.products, env.profiles, env.mail, 3, 0, logger)

	router, err := buildRouter(logger, nil, Deps{
		Carts:    env.carts,
		Products: env.products,
		Rule:     testRule,
		Checkout: checkoutSvc,
		Webhook:  webhookSvc,
		Catalog:  productsvc.New(env.products),
		Markets:  marketsvc.New(env.markets),
		Profiles: env.profileSvc,
	})
	if err != nil {
		panic(err)
	}
	env.router = router
	return env
}
