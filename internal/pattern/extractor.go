// Package pattern extracts transaction candidates from free-text messages.
package pattern

import (
	"regexp"

	"github.com/Veraticus/smsledger/internal/model"
)

// transactionRe matches "credited for INR 1,234.56" / "debited for INR 500".
// Groups: (1) keyword, (2) amount.
var transactionRe = regexp.MustCompile(`(?i)\b(credited|debited)\s+for\s+INR\s+(\d[\d,]*(?:\.\d+)?)`)

// Match holds the fields extracted from a message body.
type Match struct {
	Type   model.TransactionType
	Amount string
}

// Extract looks for the first credited/debited-for-INR phrase in body.
// The amount is returned exactly as written.
func Extract(body string) (Match, bool) {
	groups := transactionRe.FindStringSubmatch(body)
	if groups == nil {
		return Match{}, false
	}

	txnType, err := model.ParseTransactionType(groups[1])
	if err != nil {
		return Match{}, false
	}

	return Match{Type: txnType, Amount: groups[2]}, true
}

// Scan extracts candidates from msgs, keeping their order.
// Messages that do not match are dropped.
func Scan(msgs []model.RawMessage) []model.Candidate {
	candidates := make([]model.Candidate, 0, len(msgs))
	for _, msg := range msgs {
		m, ok := Extract(msg.Body)
		if !ok {
			continue
		}
		candidates = append(candidates, model.NewCandidate(msg, m.Type, m.Amount))
	}
	return candidates
}
