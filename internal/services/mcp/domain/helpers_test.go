package domain

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	mathrand "math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
	garden "github.com/astralgarden/astral.garden/internal/services/garden/domain"
	identity "github.com/astralgarden/astral.garden/internal/services/identity/domain"
	mailbox "github.com/astralgarden/astral.garden/internal/services/mailbox/domain"
)

// testEnv wires real domain services over in-memory stores, the way the
// server package does in production but with a fixed clock and seeded
// randomness. Petal searches always succeed so item flows are
// deterministic.
type testEnv struct {
	garden   *garden.Service
	identity *identity.Service
	mailbox  *mailbox.Service

	gardenStore   *fakeGardenStore
	identityStore *fakeIdentityStore
	mailboxStore  *fakeMailboxStore

	base time.Time
	now  time.Time

	mcpContext Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	base := time.Date(2026, 8, 10, 15, 0, 0, 0, time.UTC)
	env := &testEnv{
		gardenStore:   newFakeGardenStore(),
		identityStore: newFakeIdentityStore(),
		mailboxStore:  newFakeMailboxStore(),
		base:          base,
		now:           base,
	}

	tuning := garden.DefaultTuning()
	tuning.PetalChance = 1
	env.garden = garden.NewService(env.gardenStore, garden.Config{
		Clock:  env.clock,
		NewID:  sequentialIDGenerator("plant"),
		Rand:   mathrand.New(mathrand.NewSource(1)),
		Tuning: tuning,
	})

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate grant key: %v", err)
	}
	env.identity = identity.NewService(env.identityStore, identity.Config{
		Clock: env.clock,
		NewID: sequentialIDGenerator("acct"),
		LinkGrants: identity.LinkGrantConfig{
			Issuer:     "astral.garden",
			Audience:   "astral.garden/link",
			PrivateKey: privateKey,
			PublicKey:  publicKey,
			Now:        env.clock,
		},
	})

	env.mailbox = mailbox.NewService(env.mailboxStore, mailbox.Config{
		Clock: env.clock,
		NewID: sequentialIDGenerator("msg"),
	})
	return env
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

func (e *testEnv) setContext(ctx Context) { e.mcpContext = ctx }

func (e *testEnv) getContext() Context { return e.mcpContext }

// useCertificate points the session context at a fingerprint, as if
// set_context had been called.
func (e *testEnv) useCertificate(fingerprint string) {
	e.mcpContext = Context{Fingerprint: fingerprint}
}

// registerGardener creates an account with one linked certificate.
func registerGardener(t *testing.T, env *testEnv, username, fingerprint string) identity.Session {
	t.Helper()
	session, err := env.identity.RegisterNew(context.Background(), identity.RegisterNewInput{
		Username:    username,
		Certificate: identity.CertificateInfo{Fingerprint: fingerprint},
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return session
}

// sproutPlant looks at the gardener's own plot so the first seed exists.
func sproutPlant(t *testing.T, env *testEnv, accountID string) garden.PlantView {
	t.Helper()
	view, err := env.garden.Observe(context.Background(), garden.ObserveInput{OwnerID: accountID})
	if err != nil {
		t.Fatalf("sprout plant for %s: %v", accountID, err)
	}
	return view
}

func floweringPlant(ownerID, color string, at time.Time) garden.Plant {
	return garden.Plant{
		ID:          "p-" + ownerID,
		OwnerID:     ownerID,
		Species:     "sunflower",
		Color:       color,
		Generation:  1,
		Stage:       garden.StageFlowering,
		Score:       20 * 86400,
		WateredAt:   at,
		RefreshedAt: at,
		CreatedAt:   at.Add(-25 * 24 * time.Hour),
	}
}

func seedBearingPlant(ownerID string, at time.Time) garden.Plant {
	plant := floweringPlant(ownerID, "red", at)
	plant.Stage = garden.StageSeedBearing
	plant.Score = 30 * 86400
	return plant
}

func sequentialIDGenerator(prefix string) func() (string, error) {
	var mu sync.Mutex
	var n int
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}

type fakeGardenStore struct {
	mu     sync.Mutex
	plants map[string]garden.Plant
	items  map[string]map[garden.ItemID]int
}

func newFakeGardenStore() *fakeGardenStore {
	return &fakeGardenStore{
		plants: make(map[string]garden.Plant),
		items:  make(map[string]map[garden.ItemID]int),
	}
}

func (f *fakeGardenStore) seedPlant(p garden.Plant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plants[p.OwnerID] = p
}

func (f *fakeGardenStore) seedItems(accountID string, items map[garden.ItemID]int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	held := f.items[accountID]
	if held == nil {
		held = make(map[garden.ItemID]int)
		f.items[accountID] = held
	}
	for item, quantity := range items {
		held[item] = quantity
	}
}

func (f *fakeGardenStore) itemCount(accountID string, item garden.ItemID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[accountID][item]
}

func (f *fakeGardenStore) GetPlantByOwner(_ context.Context, ownerID string) (garden.Plant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plants[ownerID]
	if !ok {
		return garden.Plant{}, apperrors.New(apperrors.CodeNotFound, "plant not found")
	}
	return p, nil
}

func (f *fakeGardenStore) PutPlant(_ context.Context, plant garden.Plant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plants[plant.OwnerID] = plant
	return nil
}

func (f *fakeGardenStore) ListVisitablePlants(_ context.Context, wateredSince time.Time, minScore, limit int) ([]garden.Plant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var plants []garden.Plant
	for _, p := range f.plants {
		if p.Score < minScore || p.WateredAt.Before(wateredSince) {
			continue
		}
		plants = append(plants, p)
	}
	sort.Slice(plants, func(i, j int) bool {
		return plants[i].Score > plants[j].Score
	})
	if len(plants) > limit {
		plants = plants[:limit]
	}
	return plants, nil
}

func (f *fakeGardenStore) ItemQuantity(_ context.Context, accountID string, item garden.ItemID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[accountID][item], nil
}

func (f *fakeGardenStore) AdjustItem(_ context.Context, accountID string, item garden.ItemID, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	held := f.items[accountID]
	if held == nil {
		held = make(map[garden.ItemID]int)
		f.items[accountID] = held
	}
	next := held[item] + delta
	if next < 0 {
		return 0, apperrors.WithMetadata(apperrors.CodeItemNotHeld, "insufficient quantity", map[string]string{
			"Item": string(item),
		})
	}
	held[item] = next
	return next, nil
}

func (f *fakeGardenStore) ListItems(_ context.Context, accountID string) (map[garden.ItemID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	held := make(map[garden.ItemID]int, len(f.items[accountID]))
	for item, quantity := range f.items[accountID] {
		held[item] = quantity
	}
	return held, nil
}

type fakeIdentityStore struct {
	mu           sync.Mutex
	accounts     map[string]identity.Account
	certificates map[string]identity.Certificate
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{
		accounts:     make(map[string]identity.Account),
		certificates: make(map[string]identity.Certificate),
	}
}

func (s *fakeIdentityStore) GetAccountByID(_ context.Context, accountID string) (identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return identity.Account{}, apperrors.New(apperrors.CodeNotFound, "account not found")
	}
	return account, nil
}

func (s *fakeIdentityStore) GetAccountByUsername(_ context.Context, username string) (identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Username == username {
			return account, nil
		}
	}
	return identity.Account{}, apperrors.New(apperrors.CodeNotFound, "account not found")
}

func (s *fakeIdentityStore) CreateAccount(_ context.Context, account identity.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Username == account.Username {
			return apperrors.New(apperrors.CodeUsernameTaken, "username is already taken")
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *fakeIdentityStore) UpdateAccount(_ context.Context, account identity.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "account not found")
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *fakeIdentityStore) GetCertificateByFingerprint(_ context.Context, fingerprint string) (identity.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	certificate, ok := s.certificates[fingerprint]
	if !ok {
		return identity.Certificate{}, apperrors.New(apperrors.CodeNotFound, "certificate not found")
	}
	return certificate, nil
}

func (s *fakeIdentityStore) CreateCertificate(_ context.Context, certificate identity.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.certificates[certificate.Fingerprint]; ok {
		return apperrors.New(apperrors.CodeCertificateLinked, "certificate already linked")
	}
	s.certificates[certificate.Fingerprint] = certificate
	return nil
}

func (s *fakeIdentityStore) UpdateCertificate(_ context.Context, certificate identity.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.certificates[certificate.Fingerprint]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "certificate not found")
	}
	s.certificates[certificate.Fingerprint] = certificate
	return nil
}

func (s *fakeIdentityStore) ListCertificatesByAccount(_ context.Context, accountID string) ([]identity.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var certificates []identity.Certificate
	for _, certificate := range s.certificates {
		if certificate.AccountID == accountID {
			certificates = append(certificates, certificate)
		}
	}
	sort.Slice(certificates, func(i, j int) bool {
		if !certificates[i].LastSeenAt.Equal(certificates[j].LastSeenAt) {
			return certificates[i].LastSeenAt.Before(certificates[j].LastSeenAt)
		}
		return certificates[i].Fingerprint < certificates[j].Fingerprint
	})
	return certificates, nil
}

func (s *fakeIdentityStore) DeleteCertificate(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.certificates[fingerprint]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "certificate not found")
	}
	delete(s.certificates, fingerprint)
	return nil
}

type fakeMailboxStore struct {
	mu       sync.Mutex
	messages []mailbox.Message
}

func newFakeMailboxStore() *fakeMailboxStore {
	return &fakeMailboxStore{}
}

func (s *fakeMailboxStore) AppendMessage(_ context.Context, message mailbox.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return nil
}

func (s *fakeMailboxStore) GetMessage(_ context.Context, accountID, messageID string) (mailbox.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, message := range s.messages {
		if message.ID == messageID && message.ToID == accountID {
			return message, nil
		}
	}
	return mailbox.Message{}, apperrors.New(apperrors.CodeNotFound, "message not found")
}

// ListMessages pages through the account's messages newest first without
// applying the filter clause.
func (s *fakeMailboxStore) ListMessages(_ context.Context, accountID, _ string, _ []any, limit, offset int) ([]mailbox.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var scoped []mailbox.Message
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ToID == accountID {
			scoped = append(scoped, s.messages[i])
		}
	}
	if offset >= len(scoped) {
		return nil, nil
	}
	scoped = scoped[offset:]
	if limit < len(scoped) {
		scoped = scoped[:limit]
	}
	return scoped, nil
}

func (s *fakeMailboxStore) MarkMessageSeen(_ context.Context, accountID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, message := range s.messages {
		if message.ID == messageID && message.ToID == accountID {
			s.messages[i].Seen = true
			return nil
		}
	}
	return apperrors.New(apperrors.CodeNotFound, "message not found")
}

func (s *fakeMailboxStore) CountUnread(_ context.Context, accountID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, message := range s.messages {
		if message.ToID == accountID && !message.Seen {
			count++
		}
	}
	return count, nil
}
