package app

import "testing"

func TestExtractSetupPayload_NoMarker(t *testing.T) {
	got := ExtractSetupPayload("Thanks! Tell me more about the renewal timeline.")
	if got.Status != ExtractionNotFound {
		t.Fatalf("expected ExtractionNotFound, got %v", got.Status)
	}
}

func TestExtractSetupPayload_CompletePayload(t *testing.T) {
	text := "Great, I have everything I need.\n" +
		"---ACCOUNT_READY---\n" +
		"SYSTEM_PROMPT: You are the account manager for Acme Corp.\n" +
		"STATE_SUMMARY: Renewal due in Q3; champion is the VP of Ops.\n" +
		"ACCOUNT_NAME: Acme Corp\n" +
		"---END_ACCOUNT_READY---\n" +
		"Let me know if anything changes."

	got := ExtractSetupPayload(text)
	if got.Status != ExtractionComplete {
		t.Fatalf("expected ExtractionComplete, got %v", got.Status)
	}
	if got.SystemPrompt != "You are the account manager for Acme Corp." {
		t.Errorf("unexpected system prompt: %q", got.SystemPrompt)
	}
	if got.StateSummary != "Renewal due in Q3; champion is the VP of Ops." {
		t.Errorf("unexpected state summary: %q", got.StateSummary)
	}
	if got.AccountName != "Acme Corp" {
		t.Errorf("unexpected account name: %q", got.AccountName)
	}
}

func TestExtractSetupPayload_MissingEndMarkerRunsToEnd(t *testing.T) {
	text := "---ACCOUNT_READY---\n" +
		"SYSTEM_PROMPT: Manage the Globex relationship.\n" +
		"STATE_SUMMARY: Pilot started last week."

	got := ExtractSetupPayload(text)
	if got.Status != ExtractionComplete {
		t.Fatalf("expected ExtractionComplete, got %v", got.Status)
	}
	if got.StateSummary != "Pilot started last week." {
		t.Errorf("unexpected state summary: %q", got.StateSummary)
	}
}

func TestExtractSetupPayload_MultiParagraphFieldValues(t *testing.T) {
	text := "---ACCOUNT_READY---\n" +
		"SYSTEM_PROMPT: You manage Initech.\n\n" +
		"Always confirm budget before proposing upgrades.\n" +
		"STATE_SUMMARY: Contract signed.\n\nNext review in March.\n" +
		"---END_ACCOUNT_READY---"

	got := ExtractSetupPayload(text)
	if got.Status != ExtractionComplete {
		t.Fatalf("expected ExtractionComplete, got %v", got.Status)
	}
	wantPrompt := "You manage Initech.\n\nAlways confirm budget before proposing upgrades."
	if got.SystemPrompt != wantPrompt {
		t.Errorf("system prompt = %q, want %q", got.SystemPrompt, wantPrompt)
	}
	wantSummary := "Contract signed.\n\nNext review in March."
	if got.StateSummary != wantSummary {
		t.Errorf("state summary = %q, want %q", got.StateSummary, wantSummary)
	}
}

func TestExtractSetupPayload_IncompleteWhenFieldMissing(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "missing state summary",
			text: "---ACCOUNT_READY---\nSYSTEM_PROMPT: Handle Umbrella Inc.\n---END_ACCOUNT_READY---",
		},
		{
			name: "missing system prompt",
			text: "---ACCOUNT_READY---\nSTATE_SUMMARY: Deal stalled.\n---END_ACCOUNT_READY---",
		},
		{
			name: "empty field value",
			text: "---ACCOUNT_READY---\nSYSTEM_PROMPT:\nSTATE_SUMMARY: Deal stalled.\n---END_ACCOUNT_READY---",
		},
		{
			name: "bare markers",
			text: "---ACCOUNT_READY---\n---END_ACCOUNT_READY---",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractSetupPayload(tc.text)
			if got.Status != ExtractionIncomplete {
				t.Fatalf("expected ExtractionIncomplete, got %v", got.Status)
			}
		})
	}
}

func TestExtractSetupPayload_NameOmittedStillComplete(t *testing.T) {
	text := "---ACCOUNT_READY---\n" +
		"SYSTEM_PROMPT: Manage Hooli.\n" +
		"STATE_SUMMARY: Expansion talks underway.\n" +
		"---END_ACCOUNT_READY---"

	got := ExtractSetupPayload(text)
	if got.Status != ExtractionComplete {
		t.Fatalf("expected ExtractionComplete, got %v", got.Status)
	}
	if got.AccountName != "" {
		t.Errorf("expected empty account name, got %q", got.AccountName)
	}
}

func TestExtractSetupPayload_ProseBetweenLabelsBelongsToPriorField(t *testing.T) {
	text := "Intro prose that is not part of any field.\n" +
		"---ACCOUNT_READY---\n" +
		"Some preamble inside the payload.\n" +
		"STATE_SUMMARY: Kickoff done.\n" +
		"SYSTEM_PROMPT: Manage the Stark account.\n" +
		"---END_ACCOUNT_READY---"

	got := ExtractSetupPayload(text)
	if got.Status != ExtractionComplete {
		t.Fatalf("expected ExtractionComplete, got %v", got.Status)
	}
	// Label order in the payload does not matter; each value stops at the
	// next recognized label.
	if got.StateSummary != "Kickoff done." {
		t.Errorf("state summary = %q", got.StateSummary)
	}
	if got.SystemPrompt != "Manage the Stark account." {
		t.Errorf("system prompt = %q", got.SystemPrompt)
	}
}
