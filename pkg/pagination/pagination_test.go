package pagination

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	id := uuid.New()
	parsed, err := ParseCursor(EncodeCursor(Cursor{TicketID: id, Seq: 12}))
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, id, parsed.TicketID)
	assert.Equal(t, 12, parsed.Seq)

	empty, err := ParseCursor(" ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseCursor("not base64!")
	assert.Error(t, err)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 7, NormalizeLimit(7))
}

func TestSliceAfter(t *testing.T) {
	id := uuid.New()
	seqs := []int{1, 2, 3, 4, 5}
	identity := func(v int) int { return v }

	first := SliceAfter(id, seqs, identity, nil, 2)
	assert.Equal(t, []int{1, 2}, first.Items)
	require.NotEmpty(t, first.NextCursor)

	cursor, err := ParseCursor(first.NextCursor)
	require.NoError(t, err)
	second := SliceAfter(id, seqs, identity, cursor, 2)
	assert.Equal(t, []int{3, 4}, second.Items)

	cursor, err = ParseCursor(second.NextCursor)
	require.NoError(t, err)
	last := SliceAfter(id, seqs, identity, cursor, 2)
	assert.Equal(t, []int{5}, last.Items)
	assert.Empty(t, last.NextCursor)
}
