package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
)

func TestCursor(t *testing.T) {
	id := "01HZX3Q4S5T6V7W8X9Y0Z1A2B3"

	decoded, err := DecodeCursor(EncodeCursor(id))
	require.NoError(t, err)
	assert.Equal(t, id, decoded)

	empty, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = DecodeCursor(EncodeCursor("../../etc"))
	assert.ErrorIs(t, err, errs.ErrInvalidCursor)
}
