package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/SidhartK/per-account-agent/internal/domain"
	"github.com/SidhartK/per-account-agent/internal/store"
	"github.com/SidhartK/per-account-agent/pkg/llm"
)

func TestCreateAccount_AppliesDefaults(t *testing.T) {
	env := newTestEnv()

	account, err := env.service.CreateAccount(context.Background(), domain.CreateAccountInput{})
	if err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}
	if account.Name != "New Account" {
		t.Errorf("name = %q, want New Account", account.Name)
	}
	if account.LLMProvider != "openai" || account.LLMModel != "gpt-4o" {
		t.Errorf("model selection = %s/%s, want defaults", account.LLMProvider, account.LLMModel)
	}
	if account.Status != domain.StatusInitializing {
		t.Errorf("status = %q, want initializing", account.Status)
	}
	if account.SystemPrompt != nil || account.StateSummary != nil {
		t.Error("new account must start without system prompt or state summary")
	}
}

func TestCreateAccount_RejectsUnknownProvider(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.CreateAccount(context.Background(), domain.CreateAccountInput{
		LLMProvider: "mistral",
		LLMModel:    "mistral-large",
	})
	if !errors.Is(err, llm.ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestUpdateAccount_Validation(t *testing.T) {
	env := newTestEnv()

	t.Run("archived accounts reject patches", func(t *testing.T) {
		account := env.newAccount(domain.StatusArchived, nil)
		_, err := env.service.UpdateAccount(context.Background(), account.ID, domain.UpdateAccountInput{Name: strPtr("x")})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		account := env.newAccount(domain.StatusActive, nil)
		_, err := env.service.UpdateAccount(context.Background(), account.ID, domain.UpdateAccountInput{Name: strPtr("")})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("zero interval disables cadence", func(t *testing.T) {
		days := 7
		account := env.newAccount(domain.StatusActive, func(a *domain.Account) {
			a.ReminderIntervalDays = &days
		})
		updated, err := env.service.UpdateAccount(context.Background(), account.ID, domain.UpdateAccountInput{ReminderIntervalDays: intPtr(0)})
		if err != nil {
			t.Fatalf("UpdateAccount returned error: %v", err)
		}
		if updated.ReminderIntervalDays != nil {
			t.Errorf("cadence = %v, want disabled", *updated.ReminderIntervalDays)
		}
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		account := env.newAccount(domain.StatusActive, nil)
		_, err := env.service.UpdateAccount(context.Background(), account.ID, domain.UpdateAccountInput{LLMProvider: strPtr("mistral")})
		if !errors.Is(err, llm.ErrUnknownProvider) {
			t.Fatalf("expected ErrUnknownProvider, got %v", err)
		}
	})
}

func TestChat_RejectsArchivedAccounts(t *testing.T) {
	env := newTestEnv()
	account := env.newAccount(domain.StatusArchived, nil)

	_, err := env.service.Chat(context.Background(), account.ID, domain.Turn{Content: "hello"}, nil)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestPrepareChat_ValidatesBeforeStreaming(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	active := env.newAccount(domain.StatusActive, nil)
	if err := env.service.PrepareChat(ctx, active.ID); err != nil {
		t.Fatalf("PrepareChat on active account returned error: %v", err)
	}

	if err := env.service.PrepareChat(ctx, uuid.New()); !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("unknown account: error = %v, want ErrAccountNotFound", err)
	}

	archived := env.newAccount(domain.StatusArchived, nil)
	if err := env.service.PrepareChat(ctx, archived.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("archived account: error = %v, want ErrInvalidState", err)
	}

	broken := env.newAccount(domain.StatusActive, func(a *domain.Account) {
		a.LLMProvider = "mistral"
	})
	if err := env.service.PrepareChat(ctx, broken.ID); !errors.Is(err, llm.ErrUnknownProvider) {
		t.Errorf("unregistered provider: error = %v, want ErrUnknownProvider", err)
	}

	if env.client.calls() != 0 {
		t.Errorf("model invoked %d times, want 0", env.client.calls())
	}
}

func TestChat_PersistsUserTurnBeforeModelFailure(t *testing.T) {
	env := newTestEnv()
	account := env.newAccount(domain.StatusActive, nil)

	env.client.completeFn = func(_, _ string, _ []llm.ChatMessage) (string, error) {
		return "", errors.New("model unavailable")
	}

	_, err := env.service.Chat(context.Background(), account.ID, domain.Turn{Content: "are you there?"}, nil)
	if err == nil {
		t.Fatal("expected error from failed completion")
	}

	msgs, _ := env.messages.ListMessages(context.Background(), account.ID)
	if len(msgs) != 1 || msgs[0].Role != domain.RoleUser || msgs[0].Content != "are you there?" {
		t.Errorf("user turn not durably recorded: %+v", msgs)
	}
}

func TestChat_FlattensMultiPartTurns(t *testing.T) {
	env := newTestEnv()
	account := env.newAccount(domain.StatusActive, nil)

	turn := domain.Turn{Role: domain.RoleUser, Parts: []domain.TurnPart{
		{Type: "text", Text: "part one "},
		{Type: "image", Text: "ignored"},
		{Type: "text", Text: "part two"},
	}}
	if _, err := env.service.Chat(context.Background(), account.ID, turn, nil); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	msgs, _ := env.messages.ListMessages(context.Background(), account.ID)
	if msgs[0].Content != "part one part two" {
		t.Errorf("flattened turn = %q", msgs[0].Content)
	}
}

func TestChat_ActiveModeInjectsPromptAndSummary(t *testing.T) {
	env := newTestEnv()
	account := env.newAccount(domain.StatusActive, func(a *domain.Account) {
		a.SystemPrompt = strPtr("You manage the Wayne Enterprises account.")
		a.StateSummary = strPtr("Expansion deal at legal review.")
	})

	var capturedSystem string
	env.client.completeFn = func(_, system string, history []llm.ChatMessage) (string, error) {
		// Only capture the chat call; the follow-up summary sync also
		// invokes the model.
		if capturedSystem == "" && system != "" {
			capturedSystem = system
		}
		return "Acknowledged.", nil
	}

	reply, err := env.service.Chat(context.Background(), account.ID, domain.Turn{Content: "status?"}, nil)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if reply.Role != domain.RoleAssistant || reply.Content != "Acknowledged." {
		t.Errorf("unexpected reply: %+v", reply)
	}
	if !strings.Contains(capturedSystem, "Wayne Enterprises") {
		t.Errorf("system instructions missing durable prompt: %q", capturedSystem)
	}
	if !strings.Contains(capturedSystem, "legal review") {
		t.Errorf("system instructions missing state summary: %q", capturedSystem)
	}
}

func TestChat_ActiveExchangeRefreshesSummary(t *testing.T) {
	env := newTestEnv()
	account := env.newAccount(domain.StatusActive, func(a *domain.Account) {
		a.StateSummary = strPtr("Stale summary.")
	})

	env.client.completeFn = func(_, system string, _ []llm.ChatMessage) (string, error) {
		if system == "" {
			// Summary regeneration arrives as a bare user prompt.
			return "Fresh summary.", nil
		}
		return "Reply.", nil
	}

	if _, err := env.service.Chat(context.Background(), account.ID, domain.Turn{Content: "update"}, nil); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	updated, _ := env.accounts.FindAccountByID(context.Background(), account.ID)
	if updated.StateSummary == nil || *updated.StateSummary != "Fresh summary." {
		t.Errorf("summary = %v, want refreshed by follow-up", updated.StateSummary)
	}
}

func TestChat_StreamsDeltas(t *testing.T) {
	env := newTestEnv()
	account := env.newAccount(domain.StatusActive, nil)

	var streamed strings.Builder
	reply, err := env.service.Chat(context.Background(), account.ID, domain.Turn{Content: "hi"}, func(delta string) {
		streamed.WriteString(delta)
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if streamed.String() != reply.Content {
		t.Errorf("streamed %q, persisted %q", streamed.String(), reply.Content)
	}
}

func TestSetupConversation_ActivatesOnCompletePayload(t *testing.T) {
	env := newTestEnv()
	account, err := env.service.CreateAccount(context.Background(), domain.CreateAccountInput{})
	if err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}

	replies := []string{
		"Welcome! What kind of account is this?",
		"Got it. Who are the key contacts?",
		"And what is the current deal status?",
		"Perfect, I have what I need.\n" +
			"---ACCOUNT_READY---\n" +
			"SYSTEM_PROMPT: You are the dedicated manager for Acme Corp.\n" +
			"STATE_SUMMARY: Renewal due in Q3; champion is Dana in Ops.\n" +
			"ACCOUNT_NAME: Acme Corp\n" +
			"---END_ACCOUNT_READY---",
	}
	call := 0
	env.client.completeFn = func(_, _ string, _ []llm.ChatMessage) (string, error) {
		reply := replies[call]
		if call < len(replies)-1 {
			call++
		}
		return reply, nil
	}

	userTurns := []string{"Hi, new account", "It's an enterprise customer", "Dana from Ops", "Renewal is in Q3"}
	for i, text := range userTurns[:3] {
		if _, err := env.service.Chat(context.Background(), account.ID, domain.Turn{Content: text}, nil); err != nil {
			t.Fatalf("Chat %d returned error: %v", i, err)
		}
		current, _ := env.accounts.FindAccountByID(context.Background(), account.ID)
		if current.Status != domain.StatusInitializing {
			t.Fatalf("account left initializing after exchange %d without a payload", i)
		}
	}

	if _, err := env.service.Chat(context.Background(), account.ID, domain.Turn{Content: userTurns[3]}, nil); err != nil {
		t.Fatalf("final Chat returned error: %v", err)
	}

	activated, _ := env.accounts.FindAccountByID(context.Background(), account.ID)
	if activated.Status != domain.StatusActive {
		t.Fatalf("status = %q, want active after complete payload", activated.Status)
	}
	if activated.Name != "Acme Corp" {
		t.Errorf("name = %q, want Acme Corp", activated.Name)
	}
	if activated.SystemPrompt == nil || !strings.Contains(*activated.SystemPrompt, "dedicated manager") {
		t.Errorf("system prompt = %v", activated.SystemPrompt)
	}
	if activated.StateSummary == nil || !strings.Contains(*activated.StateSummary, "Renewal due in Q3") {
		t.Errorf("state summary = %v", activated.StateSummary)
	}

	// All eight turns survive in order.
	msgs, _ := env.messages.ListMessages(context.Background(), account.ID)
	if len(msgs) != 8 {
		t.Fatalf("history length = %d, want 8", len(msgs))
	}
	for i, m := range msgs {
		wantRole := domain.RoleUser
		if i%2 == 1 {
			wantRole = domain.RoleAssistant
		}
		if m.Role != wantRole {
			t.Errorf("message %d role = %q, want %q", i, m.Role, wantRole)
		}
	}
}

func TestListAccounts_IncludesLatestMessage(t *testing.T) {
	env := newTestEnv()
	account := env.newAccount(domain.StatusActive, nil)
	env.messages.AppendMessage(context.Background(), account.ID, domain.RoleUser, "first")
	env.messages.AppendMessage(context.Background(), account.ID, domain.RoleAssistant, "latest")

	summaries, err := env.service.ListAccounts(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListAccounts returned error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if summaries[0].LastMessage == nil || summaries[0].LastMessage.Content != "latest" {
		t.Errorf("last message = %+v", summaries[0].LastMessage)
	}
}

func TestListAccounts_RejectsUnknownStatusFilter(t *testing.T) {
	env := newTestEnv()
	bogus := domain.AccountStatus("paused")
	_, err := env.service.ListAccounts(context.Background(), &bogus)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
