package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/constants"
)

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken(32)
	require.NoError(t, err)
	b, err := GenerateOpaqueToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}

func TestUsernameFromEmail(t *testing.T) {
	assert.Equal(t, "jane.doe", UsernameFromEmail("Jane.Doe@example.com"))
	assert.Equal(t, "jd", UsernameFromEmail("j+d@example.com"))
	assert.Equal(t, "user", UsernameFromEmail("+++@example.com"))
}

func TestUsernameWithSuffix(t *testing.T) {
	name := UsernameWithSuffix("jane")
	assert.True(t, strings.HasPrefix(name, "jane_"))
	assert.Len(t, name, len("jane_")+8)
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/tasks?page=3&limit=10", nil)

	params := GetPaginationParams(c)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, 20, params.Offset())

	c.Request = httptest.NewRequest("GET", "/api/tasks?limit=100000", nil)
	params = GetPaginationParams(c)
	assert.Equal(t, constants.MaxPageSize, params.Limit)
	assert.Equal(t, 1, params.Page)

	c.Request = httptest.NewRequest("GET", "/api/tasks?page=-2&limit=abc", nil)
	params = GetPaginationParams(c)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, constants.DefaultPageSize, params.Limit)
	assert.Equal(t, 0, params.Offset())
}

func TestNewPaginationResponse(t *testing.T) {
	resp := NewPaginationResponse(PaginationParams{Page: 2, Limit: 10}, 21)
	assert.Equal(t, int64(3), resp.TotalPages)

	resp = NewPaginationResponse(PaginationParams{Page: 1, Limit: 10}, 0)
	assert.Equal(t, int64(0), resp.TotalPages)
}
