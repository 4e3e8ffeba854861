package testutil

import (
	"fmt"

	"github.com/Veraticus/smsledger/internal/model"
)

// MessageBuilder assembles SMS fixtures in order.
type MessageBuilder struct {
	msgs []model.RawMessage
}

// NewMessages starts an empty fixture list.
func NewMessages() *MessageBuilder {
	return &MessageBuilder{}
}

// Credit adds a bank credit alert.
func (b *MessageBuilder) Credit(id, amount string) *MessageBuilder {
	return b.With(id, "VM-HDFCBK", fmt.Sprintf("Your account is credited for INR %s on 01-03-24. Avl bal INR 10,000.00", amount))
}

// Debit adds a bank debit alert.
func (b *MessageBuilder) Debit(id, amount string) *MessageBuilder {
	return b.With(id, "AD-ICICIB", fmt.Sprintf("Acct XX123 debited for INR %s; UPI ref 4021. Not you? Call 1800", amount))
}

// Promo adds a message the extractor must ignore.
func (b *MessageBuilder) Promo(id string) *MessageBuilder {
	return b.With(id, "TM-SHOPZ", "Flat 50% off this weekend only! Shop now")
}

// With adds an arbitrary message.
func (b *MessageBuilder) With(id, address, body string) *MessageBuilder {
	b.msgs = append(b.msgs, model.RawMessage{ID: id, Address: address, Body: body})
	return b
}

// Build returns the fixtures.
func (b *MessageBuilder) Build() []model.RawMessage {
	out := make([]model.RawMessage, len(b.msgs))
	copy(out, b.msgs)
	return out
}
