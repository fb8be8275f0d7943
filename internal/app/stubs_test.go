package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SidhartK/per-account-agent/internal/domain"
	"github.com/SidhartK/per-account-agent/internal/store"
	"github.com/SidhartK/per-account-agent/pkg/llm"
)

// accountRepoStub is an in-memory AccountRepository.
type accountRepoStub struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
}

func newAccountRepoStub() *accountRepoStub {
	return &accountRepoStub{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *accountRepoStub) put(a *domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *a
	r.accounts[a.ID] = &copied
}

func (r *accountRepoStub) CreateAccount(_ context.Context, input domain.CreateAccountInput, status domain.AccountStatus) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	a := &domain.Account{
		ID:          uuid.New(),
		Name:        input.Name,
		Status:      status,
		LLMProvider: input.LLMProvider,
		LLMModel:    input.LLMModel,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.accounts[a.ID] = a
	copied := *a
	return &copied, nil
}

func (r *accountRepoStub) FindAccountByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *accountRepoStub) ListAccounts(_ context.Context, status *domain.AccountStatus) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Account
	for _, a := range r.accounts {
		if status == nil || a.Status == *status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *accountRepoStub) UpdateAccount(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return store.ErrAccountNotFound
	}
	copied := *account
	copied.UpdatedAt = time.Now()
	r.accounts[account.ID] = &copied
	return nil
}

func (r *accountRepoStub) DeleteAccount(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return store.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *accountRepoStub) ListReminderCandidates(_ context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Account
	for _, a := range r.accounts {
		if a.Status == domain.StatusActive && a.ReminderIntervalDays != nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *accountRepoStub) SetLastReminderAt(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return store.ErrAccountNotFound
	}
	stamp := at
	a.LastReminderAt = &stamp
	return nil
}

func (r *accountRepoStub) SetStateSummary(_ context.Context, id uuid.UUID, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return store.ErrAccountNotFound
	}
	s := summary
	a.StateSummary = &s
	return nil
}

// messageRepoStub is an in-memory append-only MessageRepository.
type messageRepoStub struct {
	mu       sync.Mutex
	messages map[uuid.UUID][]domain.Message
	clock    time.Time
}

func newMessageRepoStub() *messageRepoStub {
	return &messageRepoStub{
		messages: make(map[uuid.UUID][]domain.Message),
		clock:    time.Now(),
	}
}

func (r *messageRepoStub) AppendMessage(_ context.Context, accountID uuid.UUID, role domain.MessageRole, content string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Second)
	m := domain.Message{
		ID:        uuid.New(),
		AccountID: accountID,
		Role:      role,
		Content:   content,
		CreatedAt: r.clock,
	}
	r.messages[accountID] = append(r.messages[accountID], m)
	return &m, nil
}

func (r *messageRepoStub) ListMessages(_ context.Context, accountID uuid.UUID) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Message(nil), r.messages[accountID]...), nil
}

func (r *messageRepoStub) ListRecentMessages(_ context.Context, accountID uuid.UUID, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.messages[accountID]
	var out []domain.Message
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *messageRepoStub) LatestMessage(_ context.Context, accountID uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.messages[accountID]
	if len(all) == 0 {
		return nil, nil
	}
	m := all[len(all)-1]
	return &m, nil
}

// llmClientStub scripts model replies and counts invocations.
type llmClientStub struct {
	mu            sync.Mutex
	completeFn    func(model, system string, history []llm.ChatMessage) (string, error)
	completeCalls int
}

func (c *llmClientStub) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completeCalls
}

func (c *llmClientStub) Complete(_ context.Context, model, system string, history []llm.ChatMessage) (string, error) {
	c.mu.Lock()
	c.completeCalls++
	fn := c.completeFn
	c.mu.Unlock()
	if fn == nil {
		return "ok", nil
	}
	return fn(model, system, history)
}

func (c *llmClientStub) Stream(ctx context.Context, model, system string, history []llm.ChatMessage, onDelta llm.StreamFunc) (string, error) {
	text, err := c.Complete(ctx, model, system, history)
	if err != nil {
		return "", err
	}
	if onDelta != nil {
		onDelta(text)
	}
	return text, nil
}

// syncDispatcher runs follow-up jobs synchronously so tests can assert on
// their effects immediately.
type syncDispatcher struct {
	worker *Worker
}

func (d *syncDispatcher) Dispatch(ctx context.Context, job domain.FollowUpJob) error {
	if err := d.worker.Handle(ctx, job); err != nil {
		return err
	}
	return nil
}

type testEnv struct {
	accounts *accountRepoStub
	messages *messageRepoStub
	client   *llmClientStub
	service  *Service
	worker   *Worker
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := newAccountRepoStub()
	messages := newMessageRepoStub()
	client := &llmClientStub{}

	registry := llm.NewRegistry()
	registry.Register("openai", client)

	service := NewService(accounts, messages, registry, NewMemoryAccountLocker(), logger, Defaults{
		Provider: "openai",
		Model:    "gpt-4o",
	})
	worker := NewWorker(service, logger)
	service.SetFollowUpDispatcher(&syncDispatcher{worker: worker})

	return &testEnv{
		accounts: accounts,
		messages: messages,
		client:   client,
		service:  service,
		worker:   worker,
	}
}

func (e *testEnv) newAccount(status domain.AccountStatus, mutate func(*domain.Account)) *domain.Account {
	a := &domain.Account{
		ID:          uuid.New(),
		Name:        "Test Account",
		Status:      status,
		LLMProvider: "openai",
		LLMModel:    "gpt-4o",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if mutate != nil {
		mutate(a)
	}
	e.accounts.put(a)
	return a
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
