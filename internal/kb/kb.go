// Package kb holds the static knowledge base used for auto-resolution.
// Entries are kept in explicit ordered slices so first-match lookups stay
// deterministic.
package kb

import (
	"strings"
)

// Entry is a canned resolution keyed by an intent key and trigger keywords
type Entry struct {
	Key        string
	Keywords   []string
	Resolution string
}

// Section groups entries for one industry
type Section struct {
	Industry string
	Entries  []Entry
}

// KnowledgeBase is the immutable resolution table, constructed once at startup
type KnowledgeBase struct {
	sections []Section
}

// FallbackIndustry is used when a user's industry has no section
const FallbackIndustry = "general"

// Load builds the knowledge base
func Load() *KnowledgeBase {
	return &KnowledgeBase{sections: []Section{
		{
			Industry: "banking",
			Entries: []Entry{
				{
					Key:        "query_balance",
					Keywords:   []string{"balance", "account balance", "खाता बैलेंस"},
					Resolution: "To check your balance, log in to the app with your credentials or call 1800-BANK-HELP. If issues, provide account #.",
				},
				{
					Key:        "complaint_lock",
					Keywords:   []string{"locked", "account lock", "लॉक", "खाता लॉक"},
					Resolution: "Your account is locked for security. Use 'Forgot Password' or OTP from registered mobile to unlock. If failed, escalate.",
				},
				{
					Key:        "escalate_payment",
					Keywords:   []string{"payment failed", "refund"},
					Resolution: "Escalating your payment issue to a human agent with full context.",
				},
			},
		},
		{
			Industry: "telecom",
			Entries: []Entry{
				{
					Key:        "query_bill",
					Keywords:   []string{"bill", "recharge"},
					Resolution: "Check bill in MyAccount app or dial *123#. For disputes, escalate.",
				},
			},
		},
		{
			Industry: "general",
			Entries: []Entry{
				{
					Key:        "query_balance",
					Keywords:   []string{"balance", "account balance", "खाता बैलेंस"},
					Resolution: "To check your balance, log in to the app with your credentials or call support. If issues, provide account #.",
				},
				{
					Key:        "complaint_lock",
					Keywords:   []string{"locked", "account lock", "लॉक", "खाता लॉक"},
					Resolution: "Your account is locked for security. Use 'Forgot Password' or OTP from registered mobile to unlock. If failed, escalate.",
				},
				{
					Key:        "unknown",
					Keywords:   []string{},
					Resolution: "I couldn't find a quick solution. Let's escalate to a specialist.",
				},
			},
		},
	}}
}

// FindResolution returns the first matching resolution for the intent and
// user text in the industry's section, or "" when nothing matches. An entry
// matches when the intent is a substring of its key and any keyword appears
// case-insensitively in the text. Substring-on-key is intentionally loose
// (intent "complaint" matches key "complaint_lock") and can cross-match keys
// sharing a substring; callers rely on the definition order to disambiguate.
func (k *KnowledgeBase) FindResolution(intent, userText, industry string) (string, bool) {
	section := k.section(industry)
	if section == nil {
		return "", false
	}

	lowerText := strings.ToLower(userText)
	for _, entry := range section.Entries {
		if !strings.Contains(entry.Key, intent) {
			continue
		}
		for _, kw := range entry.Keywords {
			if strings.Contains(lowerText, strings.ToLower(kw)) {
				return entry.Resolution, true
			}
		}
	}
	return "", false
}

// section selects the industry's section, falling back to "general"
func (k *KnowledgeBase) section(industry string) *Section {
	var fallback *Section
	for i := range k.sections {
		if k.sections[i].Industry == industry {
			return &k.sections[i]
		}
		if k.sections[i].Industry == FallbackIndustry {
			fallback = &k.sections[i]
		}
	}
	return fallback
}
