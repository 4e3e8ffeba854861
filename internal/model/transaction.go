package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money movement announced by a message.
type TransactionType string

// Transaction type constants.
const (
	Credit TransactionType = "CREDIT"
	Debit  TransactionType = "DEBIT"
)

// ParseTransactionType maps a matched keyword ("credited", "DEBITED", ...) to a type.
func ParseTransactionType(keyword string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(keyword)) {
	case "credited", "credit":
		return Credit, nil
	case "debited", "debit":
		return Debit, nil
	default:
		return "", fmt.Errorf("unknown transaction keyword %q", keyword)
	}
}

// Candidate represents a message identified as describing a transaction.
type Candidate struct {
	ID      string // same as the source RawMessage ID
	Address string
	Body    string
	Type    TransactionType
	Amount  string // exact matched text, e.g. "1,234.56"
	Tag     string
	Status  CandidateStatus
}

// NewCandidate builds a PENDING candidate for msg.
func NewCandidate(msg RawMessage, txnType TransactionType, amount string) Candidate {
	return Candidate{
		ID:      msg.ID,
		Address: msg.Address,
		Body:    msg.Body,
		Type:    txnType,
		Amount:  amount,
		Status:  StatusPending,
	}
}

// AmountValue parses the amount for display arithmetic.
// Amount itself is left untouched.
func (c Candidate) AmountValue() (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.ReplaceAll(c.Amount, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", c.Amount, err)
	}
	return v, nil
}

// Totals sums candidate amounts per transaction type.
// Candidates with unparsable amounts are counted in Skipped.
type Totals struct {
	Credited decimal.Decimal
	Debited  decimal.Decimal
	Skipped  int
}

// SumAmounts computes Totals for the given candidates.
func SumAmounts(candidates []Candidate) Totals {
	var t Totals
	for _, c := range candidates {
		v, err := c.AmountValue()
		if err != nil {
			t.Skipped++
			continue
		}
		switch c.Type {
		case Credit:
			t.Credited = t.Credited.Add(v)
		case Debit:
			t.Debited = t.Debited.Add(v)
		}
	}
	return t
}
