package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name   string
		target string
		limit  int64
		offset int64
	}{
		{"defaults", "/titles", defaultPageLimit, 0},
		{"explicit", "/titles?limit=5&offset=20", 5, 20},
		{"capped", "/titles?limit=1000", maxPageLimit, 0},
		{"garbage ignored", "/titles?limit=abc&offset=-3", defaultPageLimit, 0},
		{"zero limit ignored", "/titles?limit=0", defaultPageLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parsePage(httptest.NewRequest("GET", tt.target, nil))
			assert.Equal(t, tt.limit, p.Limit)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestPaginatedLinks(t *testing.T) {
	req := httptest.NewRequest("GET", "/titles?limit=10&offset=10", nil)
	env := paginated(req, page{Limit: 10, Offset: 10}, 35, nil)

	assert.Equal(t, int64(35), env.Count)
	require.NotNil(t, env.Next)
	assert.Contains(t, *env.Next, "offset=20")
	require.NotNil(t, env.Previous)
	assert.Contains(t, *env.Previous, "offset=0")
}

func TestPaginatedFirstAndLastPage(t *testing.T) {
	req := httptest.NewRequest("GET", "/titles", nil)

	env := paginated(req, page{Limit: 10, Offset: 0}, 5, nil)
	assert.Nil(t, env.Next)
	assert.Nil(t, env.Previous)

	env = paginated(req, page{Limit: 10, Offset: 30}, 35, nil)
	assert.Nil(t, env.Next)
	require.NotNil(t, env.Previous)
	assert.Contains(t, *env.Previous, "offset=20")
}
