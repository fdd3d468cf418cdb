package bnpl

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DueDateMentioned is the sentinel stored when a message references a due
// date that could not be parsed into a concrete calendar date. Callers can
// surface these records for manual review instead of treating them as
// having no due-date information at all.
const DueDateMentioned = "Due date mentioned"

// Obligation is a structured payment obligation extracted from one email.
// Every field degrades to an absent or default value; extraction never fails.
type Obligation struct {
	Vendor       string
	Amount       *decimal.Decimal
	Installments int
	DueDate      string
	Confidence   Confidence
}

// HasAmount reports whether a monetary amount was found. Amount is the only
// field required for the obligation to be stored.
func (o Obligation) HasAmount() bool {
	return o.Amount != nil
}

type amountTier int

// Lower tier values outrank higher ones.
const (
	tierHigh amountTier = iota
	tierMedium
	tierLow
)

type amountPattern struct {
	re   *regexp.Regexp
	tier amountTier
}

type amountCandidate struct {
	tier  amountTier
	value decimal.Decimal
}

// amountUpperBound discards obviously bogus parses (order IDs, phone
// numbers) that slip past the currency patterns.
var amountUpperBound = decimal.NewFromInt(10_000_000)

// Extractor derives vendor, amount, installment count and due date from a
// message already accepted by the Classifier. Pure and deterministic; the
// clock is injectable so yearless textual dates are testable.
type Extractor struct {
	amountPatterns      []amountPattern
	installmentPatterns []*regexp.Regexp
	dueDateRe           *regexp.Regexp
	dayFirstRe          *regexp.Regexp
	yearFirstRe         *regexp.Regexp
	textualRe           *regexp.Regexp

	now func() time.Time
}

// NewExtractor builds an extractor with all pattern cascades compiled.
func NewExtractor() *Extractor {
	monthAlternation := monthNameAlternation()

	return &Extractor{
		amountPatterns: []amountPattern{
			{regexp.MustCompile(`\b(?:total\s+due|amount\s+due|minimum\s+due|outstanding|pending)[^\d₹]{0,24}?(?:\brs\.?|₹|\binr)?\s*([\d,]+(?:\.\d+)?)`), tierHigh},
			{regexp.MustCompile(`\b(?:payment|payable|pay)\s*(?:of|:)?\s*(?:\brs\.?|₹|\binr)?\s*([\d,]+(?:\.\d+)?)`), tierMedium},
			{regexp.MustCompile(`(?:\brs\.?|₹|\binr)\s*([\d,]+(?:\.\d+)?)`), tierLow},
			{regexp.MustCompile(`([\d,]+(?:\.\d+)?)\s*(?:rupees|rs)\b`), tierLow},
		},
		installmentPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(\d+)\s*emis?\b`),
			regexp.MustCompile(`(\d+)\s*(?:installments?|instalments?)\b`),
			regexp.MustCompile(`(\d+)\s*months?\s*(?:emis?|installments?|instalments?)\b`),
			regexp.MustCompile(`\b(?:emis?|installments?|instalments?)\s*(?:of|in|:)?\s*(\d+)\b`),
		},
		dueDateRe:   regexp.MustCompile(`due\s+date|payment\s+due|pay\s+before|due\s+on|due\s+by`),
		dayFirstRe:  regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`),
		yearFirstRe: regexp.MustCompile(`\b(\d{4})[/-](\d{1,2})[/-](\d{1,2})\b`),
		textualRe:   regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthAlternation + `)\.?,?\s*(\d{4})?`),

		now: time.Now,
	}
}

// Extract derives an obligation from an accepted message. The confidence
// tier is filled in by the sync service, not here.
func (e *Extractor) Extract(sender, subject, body string) Obligation {
	text := strings.ToLower(subject + " " + body)

	obligation := Obligation{
		Vendor:  e.resolveVendor(sender),
		DueDate: e.extractDueDate(text),
	}

	if amount, ok := e.extractAmount(text); ok {
		obligation.Amount = &amount
	}

	if installments, ok := e.extractInstallments(text); ok {
		obligation.Installments = installments
	} else if obligation.HasAmount() {
		// A priced obligation with no stated plan is a single payment.
		obligation.Installments = 1
	}

	return obligation
}

// resolveVendor scans the sender against the vendor table, then falls back
// to the capitalized domain label of the sender address.
func (e *Extractor) resolveVendor(sender string) string {
	lowered := strings.ToLower(sender)

	for _, entry := range vendorTable {
		if strings.Contains(lowered, entry.keyword) {
			return entry.display
		}
	}

	at := strings.Index(lowered, "@")
	if at < 0 || at+1 >= len(lowered) {
		return "Unknown"
	}
	domain := lowered[at+1:]
	if dot := strings.Index(domain, "."); dot >= 0 {
		domain = domain[:dot]
	}
	domain = strings.TrimSpace(strings.Trim(domain, ">"))
	if domain == "" {
		return "Unknown"
	}
	return strings.ToUpper(domain[:1]) + domain[1:]
}

// extractAmount collects every candidate across all pattern tiers, then
// selects by (tier rank ascending, value descending). The explicit sort
// keeps the tie-break contract auditable: highest tier wins, and within a
// tier the largest value wins.
func (e *Extractor) extractAmount(text string) (decimal.Decimal, bool) {
	var candidates []amountCandidate

	for _, pattern := range e.amountPatterns {
		for _, match := range pattern.re.FindAllStringSubmatch(text, -1) {
			value, err := parseAmount(match[1])
			if err != nil {
				continue
			}
			if !value.IsPositive() || value.GreaterThanOrEqual(amountUpperBound) {
				continue
			}
			candidates = append(candidates, amountCandidate{tier: pattern.tier, value: value})
		}
	}

	if len(candidates) == 0 {
		return decimal.Decimal{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].tier != candidates[j].tier {
			return candidates[i].tier < candidates[j].tier
		}
		return candidates[i].value.GreaterThan(candidates[j].value)
	})

	return candidates[0].value, true
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(raw, ",", "")
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unparseable amount %q: %w", raw, err)
	}
	return value.Truncate(2), nil
}

// extractInstallments tries the fixed pattern order and returns the first
// parse inside [1,60]. Out-of-range parses are discarded, not clamped.
func (e *Extractor) extractInstallments(text string) (int, bool) {
	for _, pattern := range e.installmentPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > 60 {
			continue
		}
		return n, true
	}
	return 0, false
}

// extractDueDate runs the date strategies in strict order and short-circuits
// on the first success. When no concrete date parses but due-date phrasing
// is present, the sentinel is returned instead of absent.
func (e *Extractor) extractDueDate(text string) string {
	strategies := []func(string) (string, bool){
		e.matchDayFirst,
		e.matchYearFirst,
		e.matchTextualMonth,
	}

	for _, match := range strategies {
		if date, ok := match(text); ok {
			return date
		}
	}

	if e.dueDateRe.MatchString(text) {
		return DueDateMentioned
	}
	return ""
}

// matchDayFirst handles DD/MM/YYYY and DD-MM-YYYY.
func (e *Extractor) matchDayFirst(text string) (string, bool) {
	for _, m := range e.dayFirstRe.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if date, ok := normalizeDate(day, month, year); ok {
			return date, true
		}
	}
	return "", false
}

// matchYearFirst handles YYYY/MM/DD and YYYY-MM-DD.
func (e *Extractor) matchYearFirst(text string) (string, bool) {
	for _, m := range e.yearFirstRe.FindAllStringSubmatch(text, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if date, ok := normalizeDate(day, month, year); ok {
			return date, true
		}
	}
	return "", false
}

// matchTextualMonth handles "<day> <month-name> [<year>]", substituting the
// current calendar year when the year is omitted.
func (e *Extractor) matchTextualMonth(text string) (string, bool) {
	for _, m := range e.textualRe.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		month, ok := monthNames[m[2]]
		if !ok {
			continue
		}
		year := e.now().Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		if date, ok := normalizeDate(day, month, year); ok {
			return date, true
		}
	}
	return "", false
}

// normalizeDate validates the components as a real calendar date and formats
// them as zero-padded DD/MM/YYYY. time.Date normalizes overflow (day 31 of a
// 30-day month becomes the 1st of the next month), so a roundtrip comparison
// rejects impossible dates.
func normalizeDate(day, month, year int) (string, bool) {
	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return "", false
	}
	return fmt.Sprintf("%02d/%02d/%04d", day, month, year), true
}

func monthNameAlternation() string {
	// Longest names first so "january" is preferred over its "jan" prefix.
	names := make([]string, 0, len(monthNames))
	for name := range monthNames {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return strings.Join(names, "|")
}
