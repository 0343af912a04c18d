package auth

import (
	"testing"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer tok", want: "tok"},
		{name: "mixed case scheme", header: "BeArEr tok", want: "tok"},
		{name: "extra spaces", header: "Bearer   tok", want: "tok"},
		{name: "missing", header: "", wantErr: common.ErrMissingAuthHeader},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: common.ErrInvalidAuthHeader},
		{name: "no token", header: "Bearer", wantErr: common.ErrInvalidAuthHeader},
		{name: "too many parts", header: "Bearer a b", wantErr: common.ErrInvalidAuthHeader},
		{name: "blank", header: "   ", wantErr: common.ErrInvalidAuthHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPublicDetail_HeaderErrors(t *testing.T) {
	assert.Equal(t, "Authorization header missing", PublicDetail(common.ErrMissingAuthHeader))
	assert.Equal(t, "Invalid Authorization header", PublicDetail(common.ErrInvalidAuthHeader))
	assert.Equal(t, "Invalid token header", PublicDetail(ErrUnknownKey))
	assert.Equal(t, "Invalid token", PublicDetail(common.ErrInvalidToken))
}
