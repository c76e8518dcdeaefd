package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateRuleOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		text       string
		confidence float64
		want       Trigger
	}{
		{"scam is fraud risk", "this is a scam", 0.9, TriggerFraudRisk},
		{"stolen card", "Someone used my STOLEN CARD", 0.9, TriggerFraudRisk},
		{"fraud beats refund", "fake product, I want a refund", 0.9, TriggerFraudRisk},
		{"refund", "I need a refund please", 0.9, TriggerPaymentDispute},
		{"charged twice", "you charged twice", 0.9, TriggerPaymentDispute},
		{"billing", "my invoice is wrong", 0.9, TriggerBillingError},
		{"hostile", "stupid bot", 0.9, TriggerSentiment},
		{"legal threat", "I will sue you", 0.9, TriggerSentiment},
		{"keyword beats low confidence", "I am angry", 0.1, TriggerSentiment},
		{"low confidence", "do you have blue shoes", 0.5, TriggerLowConfidence},
		{"low confidence beats manual", "talk to a human", 0.3, TriggerLowConfidence},
		{"manual request", "can I talk to a human", 0.9, TriggerManualRequest},
		{"real person", "is this a real person?", 0.9, TriggerManualRequest},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(tc.text, tc.confidence, 3)
			assert.True(t, got.ShouldEscalate)
			assert.Equal(t, tc.want, got.Trigger)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestEvaluateMatchesInflectedForms(t *testing.T) {
	t.Parallel()

	cases := map[string]Trigger{
		"you scammed me":           TriggerFraudRisk,
		"this seller is a scammer": TriggerFraudRisk,
		"this looks fraudulent":    TriggerFraudRisk,
		"the photos were faked":    TriggerFraudRisk,
		"I want refunds for both":  TriggerPaymentDispute,
		"I filed chargebacks":      TriggerPaymentDispute,
		"they refunded half":       TriggerPaymentDispute,
		"I was overcharged again":  TriggerBillingError,
		"send me the invoices":     TriggerBillingError,
		"I hated this experience":  TriggerSentiment,
		"my lawyers will call":     TriggerSentiment,
		"I already sued a shop":    TriggerSentiment,
		"see you in court, seller": TriggerSentiment,
	}
	for text, want := range cases {
		got := Evaluate(text, 0.9, 2)
		assert.True(t, got.ShouldEscalate, text)
		assert.Equal(t, want, got.Trigger, text)
	}
}

func TestEvaluateNoMatch(t *testing.T) {
	t.Parallel()

	texts := []string{
		"do you deliver to Lekki?",
		"I have an issue with sizing",
		"do you have suede loafers",
		"thanks for the courtesy call",
		"",
		"whatever works",
	}
	for _, text := range texts {
		got := Evaluate(text, 0.9, 1)
		assert.False(t, got.ShouldEscalate, text)
		assert.Empty(t, got.Trigger, text)
	}
}

func TestEvaluateThresholdIsExclusive(t *testing.T) {
	t.Parallel()

	assert.False(t, Evaluate("hello", LowConfidenceThreshold, 0).ShouldEscalate)
	assert.True(t, Evaluate("hello", LowConfidenceThreshold-0.01, 0).ShouldEscalate)
}

func TestEvaluateReasonTruncatesMessage(t *testing.T) {
	t.Parallel()

	got := Evaluate("this is a scam and I am reporting it", 0.9, 0)
	assert.Equal(t, "Detected trigger word in message: this is a scam and I", got.Reason)
}

func TestPolicyFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Policy{PriorityUrgent, CategoryFraud}, PolicyFor(TriggerFraudRisk))
	assert.Equal(t, Policy{PriorityUrgent, CategoryPayment}, PolicyFor(TriggerPaymentDispute))
	assert.Equal(t, Policy{PriorityHigh, CategoryBilling}, PolicyFor(TriggerBillingError))
	assert.Equal(t, Policy{PriorityHigh, CategoryComplaint}, PolicyFor(TriggerSentiment))
	assert.Equal(t, Policy{PriorityMedium, CategoryGeneral}, PolicyFor(TriggerLowConfidence))
	assert.Equal(t, Policy{PriorityMedium, CategoryGeneral}, PolicyFor(TriggerManualRequest))
}

func TestHandoffCopy(t *testing.T) {
	t.Parallel()

	assert.Contains(t, HandoffCopy(TriggerPaymentDispute), "finance team")
	assert.Contains(t, HandoffCopy(TriggerFraudRisk), "security team")
	assert.Equal(t, "I've passed your request to our team. A person will continue from here.", HandoffCopy(TriggerSentiment))
}
