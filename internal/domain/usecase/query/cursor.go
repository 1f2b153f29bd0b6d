package query

import (
	"encoding/base64"
	"strings"

	"github.com/oklog/ulid/v2"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
)

const cursorPrefix = "v1:"

// EncodeCursor turns the last transaction id of a page into an opaque token
func EncodeCursor(transactionID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + transactionID))
}

// DecodeCursor returns the transaction id a page should continue after.
// An empty cursor starts at the newest transaction.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", errs.ErrInvalidCursor
	}

	id, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return "", errs.ErrInvalidCursor
	}
	if _, err := ulid.ParseStrict(id); err != nil {
		return "", errs.ErrInvalidCursor
	}
	return id, nil
}
