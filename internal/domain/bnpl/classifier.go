// Package bnpl implements the email classification and field-extraction
// pipeline that turns raw inbox messages into structured payment obligations.
package bnpl

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Confidence indicates which acceptance tier approved a message.
type Confidence string

const (
	// ConfidenceTrusted means the sender allow-list and required vocabulary
	// both matched.
	ConfidenceTrusted Confidence = "trusted"

	// ConfidenceInferred means only the strong-indicator fallback matched:
	// an amount co-occurring with due-date or payment-term language from an
	// unrecognized sender.
	ConfidenceInferred Confidence = "inferred"
)

// Classifier decides whether a raw email is a genuine financial/BNPL
// message. It is pure and total: any triple of strings yields a verdict,
// and the same triple always yields the same verdict.
//
// The keyword sets are compiled into Aho-Corasick matchers once at
// construction so each Classify call is a single pass per set.
type Classifier struct {
	senderMatcher    *ahocorasick.Matcher
	financialMatcher *ahocorasick.Matcher
	promoMatcher     *ahocorasick.Matcher

	amountRe      *regexp.Regexp
	dueDateRe     *regexp.Regexp
	paymentTermRe *regexp.Regexp
}

// NewClassifier builds a classifier from the static keyword tables.
func NewClassifier() *Classifier {
	return &Classifier{
		senderMatcher:    ahocorasick.NewStringMatcher(senderKeywords),
		financialMatcher: ahocorasick.NewStringMatcher(financialKeywords),
		promoMatcher:     ahocorasick.NewStringMatcher(promoKeywords),

		amountRe:      regexp.MustCompile(`(?:\brs\.?|₹|\binr)\s*\d`),
		dueDateRe:     regexp.MustCompile(`due\s+date|payment\s+due|pay\s+before|due\s+on|due\s+by`),
		paymentTermRe: regexp.MustCompile(`\b(?:emis?|installments?|instalments?|pending|outstanding|payable)\b`),
	}
}

// Classify reports whether the message should enter extraction.
func (c *Classifier) Classify(sender, subject, body string) bool {
	accepted, _ := c.ClassifyWithConfidence(sender, subject, body)
	return accepted
}

// ClassifyWithConfidence reports the verdict along with the tier that
// produced it. Confidence is only meaningful when accepted is true.
func (c *Classifier) ClassifyWithConfidence(sender, subject, body string) (accepted bool, confidence Confidence) {
	loweredSender := strings.ToLower(sender)
	combined := loweredSender + " " + strings.ToLower(subject) + " " + strings.ToLower(body)

	// Promotional content vetoes everything else.
	if c.matches(c.promoMatcher, combined) {
		return false, ""
	}

	senderValid := c.matches(c.senderMatcher, loweredSender)
	hasFinancialKeyword := c.matches(c.financialMatcher, combined)
	if senderValid && hasFinancialKeyword {
		return true, ConfidenceTrusted
	}

	// Strong-indicator fallback: an amount plus obligation language catches
	// financial mail from senders the allow-list does not know.
	hasAmount := c.amountRe.MatchString(combined)
	hasDueDate := c.dueDateRe.MatchString(combined)
	hasPaymentTerm := c.paymentTermRe.MatchString(combined)
	if hasAmount && (hasDueDate || hasPaymentTerm) {
		return true, ConfidenceInferred
	}

	return false, ""
}

func (c *Classifier) matches(m *ahocorasick.Matcher, text string) bool {
	return len(m.Match([]byte(text))) > 0
}
