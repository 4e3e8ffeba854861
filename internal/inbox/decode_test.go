package inbox

import (
	"strings"
	"testing"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []model.RawMessage
		wantErr bool
	}{
		{
			name: "numeric and string ids",
			input: `[
				{"_id": 42, "address": "VM-BANK", "body": "credited for INR 10", "date": 1700000000000, "read": 1},
				{"_id": "43", "address": "AX-SHOP", "body": "sale today"}
			]`,
			want: []model.RawMessage{
				{ID: "42", Address: "VM-BANK", Body: "credited for INR 10"},
				{ID: "43", Address: "AX-SHOP", Body: "sale today"},
			},
		},
		{
			name:  "list encoded as a string",
			input: `"[{\"_id\":7,\"address\":\"A\",\"body\":\"B\"}]"`,
			want:  []model.RawMessage{{ID: "7", Address: "A", Body: "B"}},
		},
		{
			name:  "empty list",
			input: `[]`,
			want:  []model.RawMessage{},
		},
		{name: "empty input", input: "  ", wantErr: true},
		{name: "object instead of list", input: `{"_id": 1}`, wantErr: true},
		{name: "missing id", input: `[{"address": "A", "body": "B"}]`, wantErr: true},
		{name: "blank string id", input: `[{"_id": " ", "body": "B"}]`, wantErr: true},
		{name: "fractional id", input: `[{"_id": 1.5, "body": "B"}]`, wantErr: true},
		{name: "duplicate id", input: `[{"_id": 1}, {"_id": "1"}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidDump)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
