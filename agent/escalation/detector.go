package escalation

import (
	"fmt"
	"strings"
)

type Trigger string

const (
	TriggerFraudRisk      Trigger = "FRAUD_RISK"
	TriggerPaymentDispute Trigger = "PAYMENT_DISPUTE"
	TriggerBillingError   Trigger = "BILLING_ERROR"
	TriggerSentiment      Trigger = "SENTIMENT"
	TriggerLowConfidence  Trigger = "LOW_CONFIDENCE"
	TriggerManualRequest  Trigger = "MANUAL_REQUEST"
)

// LowConfidenceThreshold is the model confidence below which a turn is handed
// to a person.
const LowConfidenceThreshold = 0.62

type Result struct {
	ShouldEscalate bool
	Trigger        Trigger
	Reason         string
}

// rule is one entry of the ordered decision table. Either match or at least
// one of stems/words is set. Stems need a word boundary only before them, so
// "scam" covers "scammed" and "scammer". Words must stand alone, so "sue" does
// not fire on "issue" or "suede".
type rule struct {
	trigger Trigger
	stems   []string
	words   []string
	match   func(lower string, confidence float64) bool
}

var rules = []rule{
	{trigger: TriggerFraudRisk, stems: []string{"scam", "fraud", "fake", "stolen card"}},
	{trigger: TriggerPaymentDispute, stems: []string{"refund", "double charge", "chargeback", "charged twice"}},
	{trigger: TriggerBillingError, stems: []string{"overcharge", "wrong amount", "billing", "invoice"}},
	{
		trigger: TriggerSentiment,
		stems:   []string{"angry", "stupid bot", "hate", "lawyer"},
		words:   []string{"sue", "sued", "suing", "court"},
	},
	{
		trigger: TriggerLowConfidence,
		match: func(_ string, confidence float64) bool {
			return confidence < LowConfidenceThreshold
		},
	},
	{trigger: TriggerManualRequest, stems: []string{"talk to a human", "real person", "human agent", "speak to someone"}},
}

func (r rule) matches(lower string) bool {
	for _, kw := range r.stems {
		if containsKeyword(lower, kw, false) {
			return true
		}
	}
	for _, kw := range r.words {
		if containsKeyword(lower, kw, true) {
			return true
		}
	}
	return false
}

// Evaluate runs the rule table against the latest buyer message; the first
// matching rule wins.
func Evaluate(text string, confidence float64, historyCount int) Result {
	lower := strings.ToLower(strings.TrimSpace(text))

	for _, r := range rules {
		if r.match != nil {
			if r.match(lower, confidence) {
				return Result{
					ShouldEscalate: true,
					Trigger:        r.trigger,
					Reason:         fmt.Sprintf("Model confidence %.2f below %.2f after %d messages", confidence, LowConfidenceThreshold, historyCount),
				}
			}
			continue
		}
		if lower == "" {
			continue
		}
		if r.matches(lower) {
			return Result{
				ShouldEscalate: true,
				Trigger:        r.trigger,
				Reason:         "Detected trigger word in message: " + truncateRunes(text, 20),
			}
		}
	}

	return Result{}
}

// containsKeyword reports whether kw starts a word in s. With whole set the
// match must also end on a word boundary.
func containsKeyword(s, kw string, whole bool) bool {
	for start := 0; ; {
		idx := strings.Index(s[start:], kw)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(kw)
		if idx == 0 || !isWordByte(s[idx-1]) {
			if !whole || end == len(s) || !isWordByte(s[end]) {
				return true
			}
		}
		start = idx + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
)

type Category string

const (
	CategoryFraud     Category = "FRAUD"
	CategoryPayment   Category = "PAYMENT"
	CategoryBilling   Category = "BILLING"
	CategoryComplaint Category = "COMPLAINT"
	CategoryGeneral   Category = "GENERAL"
)

type Policy struct {
	Priority Priority
	Category Category
}

var policies = map[Trigger]Policy{
	TriggerFraudRisk:      {Priority: PriorityUrgent, Category: CategoryFraud},
	TriggerPaymentDispute: {Priority: PriorityUrgent, Category: CategoryPayment},
	TriggerBillingError:   {Priority: PriorityHigh, Category: CategoryBilling},
	TriggerSentiment:      {Priority: PriorityHigh, Category: CategoryComplaint},
}

func PolicyFor(trigger Trigger) Policy {
	if p, ok := policies[trigger]; ok {
		return p
	}
	return Policy{Priority: PriorityMedium, Category: CategoryGeneral}
}

func HandoffCopy(trigger Trigger) string {
	switch trigger {
	case TriggerPaymentDispute:
		return "I apologize for the confusion. I'm alerting our finance team now."
	case TriggerFraudRisk:
		return "I've alerted our security team for immediate review."
	default:
		return "I've passed your request to our team. A person will continue from here."
	}
}
