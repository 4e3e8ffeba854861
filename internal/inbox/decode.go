// Package inbox decodes SMS list dumps into raw messages for the local inbox.
//
// The accepted format is the JSON array an Android SMS list call returns:
//
//	[{"_id": 42, "address": "VM-HDFCBK", "body": "...", "date": 1700000000000}, ...]
//
// Unknown fields are ignored. The _id may be encoded as a number or a string.
package inbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
)

// ErrInvalidDump is returned when the input is not a message list.
var ErrInvalidDump = errors.New("invalid SMS dump")

type entry struct {
	ID      json.RawMessage `json:"_id"`
	Address string          `json:"address"`
	Body    string          `json:"body"`
}

// Decode reads a full SMS list dump. Entries keep their order in the dump.
func Decode(r io.Reader) ([]model.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read SMS dump: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidDump)
	}

	// Some exporters write the list as a JSON-encoded string.
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDump, err)
		}
		data = []byte(inner)
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDump, err)
	}

	msgs := make([]model.RawMessage, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		id, err := decodeID(e.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidDump, i, err)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: entry %d: duplicate _id %s", ErrInvalidDump, i, id)
		}
		seen[id] = struct{}{}

		msgs = append(msgs, model.RawMessage{
			ID:      id,
			Address: e.Address,
			Body:    e.Body,
		})
	}

	return msgs, nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", errors.New("missing _id")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", errors.New("empty _id")
		}
		return s, nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("_id must be a string or number, got %s", raw)
	}
	if _, err := n.Int64(); err != nil {
		return "", fmt.Errorf("_id must be an integer, got %s", n)
	}
	return n.String(), nil
}
