package fmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryEncode(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  map[string]string
	}{
		{
			name:  "equality predicate",
			query: Query{Eq("id", "u1")},
			want:  map[string]string{"id": "==u1"},
		},
		{
			name: "composite query ANDs predicates",
			query: Query{
				Eq("provider", "google"),
				Eq("providerAccountId", "123"),
			},
			want: map[string]string{
				"provider":          "==google",
				"providerAccountId": "==123",
			},
		},
		{
			name:  "range operator",
			query: Query{{Field: "expires", Op: OpGreaterOrEqual, Value: "2024-01-01"}},
			want:  map[string]string{"expires": ">=2024-01-01"},
		},
		{
			name:  "begins-with has no prefix",
			query: Query{{Field: "email", Op: OpBeginsWith, Value: "a@"}},
			want:  map[string]string{"email": "a@"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.encode())
		})
	}
}
