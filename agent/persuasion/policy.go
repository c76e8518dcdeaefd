package persuasion

import "strings"

type Strategy string

const (
	StrategyBenefitFrame  Strategy = "BENEFIT_FRAME"
	StrategySocialProof   Strategy = "SOCIAL_PROOF"
	StrategyRiskReduction Strategy = "RISK_REDUCTION"
	StrategyNone          Strategy = "NONE"
)

type Intent string

const (
	IntentOrderInquiry    Intent = "ORDER_INQUIRY"
	IntentOrderPlacement  Intent = "ORDER_PLACEMENT"
	IntentComplaint       Intent = "COMPLAINT"
	IntentExit            Intent = "EXIT_INTENT"
	IntentProductQuestion Intent = "PRODUCT_QUESTION"
	IntentComparison      Intent = "COMPARISON"
	IntentGeneral         Intent = "GENERAL"
)

const (
	negativeSentimentFloor = -0.3
	minConfidence          = 0.7
)

// Signals are the inputs to a persuasion decision. Sentiment ranges -1..1,
// Confidence 0..1 and Intensity is the merchant's configured level (0 means
// clarification only).
type Signals struct {
	Intent     Intent
	Sentiment  float64
	Confidence float64
	Intensity  int
}

var intentStrategies = map[Intent]Strategy{
	IntentProductQuestion: StrategySocialProof,
	IntentComparison:      StrategySocialProof,
	IntentOrderPlacement:  StrategyRiskReduction,
	IntentOrderInquiry:    StrategyNone,
}

// DecidePersuasion applies safety overrides before the intent table.
func DecidePersuasion(s Signals) Strategy {
	switch {
	case s.Sentiment < negativeSentimentFloor:
		return StrategyNone
	case s.Intent == IntentComplaint || s.Intent == IntentExit:
		return StrategyNone
	case s.Confidence < minConfidence:
		return StrategyNone
	case s.Intensity <= 0:
		return StrategyNone
	}
	if st, ok := intentStrategies[s.Intent]; ok {
		return st
	}
	return StrategyBenefitFrame
}

func Advice(st Strategy) string {
	if st == "" || st == StrategyNone {
		return "STRATEGY: Be helpful but stay neutral. No active selling."
	}
	return "STRATEGY: Use " + string(st) + ". Focus on benefits and trust. No pressure."
}

type intentRule struct {
	intent Intent
	all    []string
	any    []string
}

// Ordered; the first rule whose "all" words are present and at least one
// "any" word matches wins.
var intentRules = []intentRule{
	{intent: IntentOrderInquiry, all: []string{"order"}, any: []string{"status", "where", "track"}},
	{intent: IntentExit, any: []string{"never mind", "nevermind", "forget it", "not interested", "bye", "cancel"}},
	{intent: IntentOrderPlacement, any: []string{"buy", "purchase", "want to order", "how much", "checkout"}},
	{intent: IntentComplaint, any: []string{"complaint", "problem", "issue", "wrong", "broken", "damaged"}},
	{intent: IntentComparison, any: []string{"compare", " vs ", "versus", "better than", "difference between"}},
	{intent: IntentProductQuestion, any: []string{"product", "available", "stock", "price", "size", "colour", "color"}},
}

func DetectIntent(text string) Intent {
	lower := " " + strings.ToLower(strings.TrimSpace(text)) + " "
	if strings.TrimSpace(lower) == "" {
		return IntentGeneral
	}
	for _, r := range intentRules {
		if !containsAll(lower, r.all) {
			continue
		}
		if containsAny(lower, r.any) {
			return r.intent
		}
	}
	return IntentGeneral
}

type Objection string

const (
	ObjectionPrice    Objection = "PRICE"
	ObjectionDelivery Objection = "DELIVERY"
	ObjectionTrust    Objection = "TRUST"
)

var objectionRules = []struct {
	category Objection
	keywords []string
}{
	{ObjectionPrice, []string{"expensive", "too much", "cheaper", "discount", "price is high", "costly"}},
	{ObjectionDelivery, []string{"delivery", "shipping", "how long", "arrive", "too far"}},
	{ObjectionTrust, []string{"legit", "trust", "original", "genuine", "reviews", "authentic"}},
}

// ClassifyObjection returns the first matching objection family, or "" when
// the text raises none.
func ClassifyObjection(text string) Objection {
	lower := strings.ToLower(text)
	for _, r := range objectionRules {
		if containsAny(lower, r.keywords) {
			return r.category
		}
	}
	return ""
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
