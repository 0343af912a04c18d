package auth

import (
	"strings"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
)

// BearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively and exactly one token must follow.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", common.ErrMissingAuthHeader
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", common.ErrInvalidAuthHeader
	}
	return parts[1], nil
}
