package ledger

import (
	"strings"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
)

// Request is the body posted to the ledger.
type Request struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
	Tags   string `json:"tags"`
}

// NewRequest builds the payload for one submission. The amount is sent exactly
// as extracted and the date is the submission time, not the message time.
func NewRequest(c model.Candidate, tag string, now time.Time) Request {
	return Request{
		Type:   strings.ToUpper(string(c.Type)),
		Amount: c.Amount,
		Date:   now.UTC().Format(time.RFC3339),
		Tags:   strings.ToUpper(tag),
	}
}

// Row returns the request as a spreadsheet row.
func (r Request) Row() []any {
	return []any{r.Date, r.Type, r.Amount, r.Tags}
}

// response is the acknowledgement the webhook returns.
type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const statusSuccess = "success"
