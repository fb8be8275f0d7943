/**
 * @description
 * This file implements the structured completion parser. During setup the
 * model is instructed to end its final message with a tagged payload; this
 * extractor pulls the labeled fields back out of the otherwise free-form
 * reply text.
 *
 * The format is deliberately loose: the calling convention is a free chat
 * completion, so schema-constrained output cannot be assumed. The parser
 * tolerates surrounding prose, a missing end marker (payload runs to end of
 * text), multi-paragraph field values, and partial compliance. Results are
 * tagged rather than error-bearing: found-nothing and found-incomplete both
 * leave the account untouched and the conversation continues.
 */
package app

import (
	"sort"
	"strings"
)

const (
	setupStartMarker = "---ACCOUNT_READY---"
	setupEndMarker   = "---END_ACCOUNT_READY---"

	labelSystemPrompt = "SYSTEM_PROMPT:"
	labelStateSummary = "STATE_SUMMARY:"
	labelAccountName  = "ACCOUNT_NAME:"
)

// ExtractionStatus classifies the outcome of a payload scan.
type ExtractionStatus int

const (
	// ExtractionNotFound means the text contains no payload at all.
	ExtractionNotFound ExtractionStatus = iota
	// ExtractionIncomplete means a payload was found but a mandatory field
	// is missing or empty; the account is not yet ready.
	ExtractionIncomplete
	// ExtractionComplete means both mandatory fields were recovered.
	ExtractionComplete
)

// Extraction is the tagged result of scanning a model reply for a setup
// payload. SystemPrompt and StateSummary are mandatory for a Complete
// result; AccountName is optional and may be empty even then.
type Extraction struct {
	Status       ExtractionStatus
	SystemPrompt string
	StateSummary string
	AccountName  string
}

// ExtractSetupPayload scans raw model output for the account-ready payload.
// It never fails: absence of the start marker yields ExtractionNotFound, and
// a missing end marker means the payload extends to the end of the text.
func ExtractSetupPayload(text string) Extraction {
	start := strings.Index(text, setupStartMarker)
	if start < 0 {
		return Extraction{Status: ExtractionNotFound}
	}

	payload := text[start+len(setupStartMarker):]
	if end := strings.Index(payload, setupEndMarker); end >= 0 {
		payload = payload[:end]
	}

	fields := splitLabeledFields(payload, []string{labelSystemPrompt, labelStateSummary, labelAccountName})

	result := Extraction{
		SystemPrompt: fields[labelSystemPrompt],
		StateSummary: fields[labelStateSummary],
		AccountName:  fields[labelAccountName],
	}
	if result.SystemPrompt == "" || result.StateSummary == "" {
		result.Status = ExtractionIncomplete
	} else {
		result.Status = ExtractionComplete
	}
	return result
}

// splitLabeledFields slices the payload into per-label values: each value
// runs from after its label to the start of the next recognized label, or to
// the end of the payload, with surrounding whitespace trimmed.
func splitLabeledFields(payload string, labels []string) map[string]string {
	type mark struct {
		label string
		pos   int
	}

	var marks []mark
	for _, label := range labels {
		if pos := strings.Index(payload, label); pos >= 0 {
			marks = append(marks, mark{label: label, pos: pos})
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].pos < marks[j].pos })

	fields := make(map[string]string, len(labels))
	for i, m := range marks {
		valueStart := m.pos + len(m.label)
		valueEnd := len(payload)
		if i+1 < len(marks) {
			valueEnd = marks[i+1].pos
		}
		fields[m.label] = strings.TrimSpace(payload[valueStart:valueEnd])
	}
	return fields
}
