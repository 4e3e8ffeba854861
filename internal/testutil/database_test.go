package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestInbox(t *testing.T) {
	msgs := NewMessages().
		Credit("1", "2,500.00").
		Debit("2", "500").
		Promo("3").
		Build()

	inbox := SetupTestInbox(t, msgs...)

	got, err := inbox.Storage.List(context.Background(), model.DefaultBox)
	require.NoError(t, err)
	assert.Equal(t, msgs, got)
	inbox.MustContain("3")

	require.NoError(t, inbox.Storage.Delete(context.Background(), "3"))
	inbox.MustNotContain("3")
}

func TestMessageBuilder_FixturesMatchExtractor(t *testing.T) {
	candidates := pattern.Scan(NewMessages().Credit("1", "1,234.56").Debit("2", "500").Promo("3").Build())

	require.Len(t, candidates, 2)
	assert.Equal(t, model.Credit, candidates[0].Type)
	assert.Equal(t, "1,234.56", candidates[0].Amount)
	assert.Equal(t, model.Debit, candidates[1].Type)
	assert.Equal(t, "500", candidates[1].Amount)
}
