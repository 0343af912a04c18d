package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
)

var (
	ErrMalformedToken = fmt.Errorf("%w: unable to read token header", common.ErrInvalidToken)
	ErrUnknownKey     = fmt.Errorf("%w: no signing key matches token header", common.ErrInvalidToken)
	ErrInvalidKeySet  = fmt.Errorf("%w: signing key set is malformed", common.ErrInvalidToken)
)

// verificationError carries the parser's reason for rejecting a token.
type verificationError struct {
	err error
}

func (e *verificationError) Error() string {
	return "token verification failed: " + e.err.Error()
}

func (e *verificationError) Unwrap() []error {
	return []error{common.ErrInvalidToken, e.err}
}

// PublicDetail returns the client-facing message for an authentication
// failure returned by BearerToken or a Verifier.
func PublicDetail(err error) string {
	var ve *verificationError

	switch {
	case errors.Is(err, common.ErrMissingAuthHeader):
		return "Authorization header missing"
	case errors.Is(err, common.ErrInvalidAuthHeader):
		return "Invalid Authorization header"
	case errors.Is(err, common.ErrKeysUnavailable):
		return "Unable to fetch signing keys"
	case errors.Is(err, ErrMalformedToken):
		return "Malformed token: unable to read header"
	case errors.Is(err, ErrInvalidKeySet):
		return "Invalid JWKS format"
	case errors.Is(err, ErrUnknownKey):
		return "Invalid token header"
	case errors.As(err, &ve):
		return "Token verification failed: " + ve.err.Error()
	default:
		return "Invalid token"
	}
}
