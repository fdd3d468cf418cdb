package bnpl

// The keyword tables below drive classification and vendor resolution.
// They are ordered slices rather than maps so matching precedence is
// explicit and testable.

// senderKeywords marks a sender as a known financial origin when any entry
// appears as a substring of the lower-cased From header.
var senderKeywords = []string{
	"bank",
	"card",
	"loan",
	"finance",
	"credit",
	"hdfc",
	"icici",
	"sbi",
	"axis",
	"kotak",
	"idfc",
	"rbl",
	"citi",
	"amex",
	"paytm",
	"phonepe",
	"gpay",
	"cred",
	"simpl",
	"lazypay",
	"zest",
	"slice",
	"bajaj",
	"amazon",
	"flipkart",
}

// financialKeywords is the required payment-context vocabulary scanned over
// the combined sender+subject+body text.
var financialKeywords = []string{
	"installment",
	"instalment",
	"emi",
	"due date",
	"minimum due",
	"total due",
	"amount due",
	"overdue",
	"pay later",
	"payment due",
	"outstanding",
	"statement",
	"loan payment",
	"repayment",
}

// promoKeywords vetoes a message regardless of any other signal. Marketing
// mail reuses "EMI available" language, so this list dominates acceptance.
var promoKeywords = []string{
	"unsubscribe",
	"discount",
	"sale",
	"% off",
	"cashback offer",
	"coupon",
	"promo code",
	"limited time",
	"offer ends",
	"deal of the day",
	"flash sale",
	"shop now",
}

// vendorEntry maps a sender keyword to its display name. First match wins,
// so specific issuers come before loosely-matching entries ("cred" would
// otherwise shadow anything containing "credit").
type vendorEntry struct {
	keyword string
	display string
}

var vendorTable = []vendorEntry{
	{"amazon", "Amazon"},
	{"flipkart", "Flipkart"},
	{"myntra", "Myntra"},
	{"hdfc", "HDFC Bank"},
	{"icici", "ICICI Bank"},
	{"sbi", "SBI Card"},
	{"axis", "Axis Bank"},
	{"kotak", "Kotak Mahindra"},
	{"idfc", "IDFC First"},
	{"bajaj", "Bajaj Finserv"},
	{"paytm", "Paytm"},
	{"phonepe", "PhonePe"},
	{"lazypay", "LazyPay"},
	{"zest", "ZestMoney"},
	{"slice", "Slice"},
	{"simpl", "Simpl"},
	{"cred", "CRED"},
}

// monthNames maps full and abbreviated month names to month numbers for the
// textual due-date form.
var monthNames = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}
