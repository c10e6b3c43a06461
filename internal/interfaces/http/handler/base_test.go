package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/interfaces/http/dto"
	"github.com/d2bcart/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setJWTContext simulates an authenticated request without a real token
func setJWTContext(c *gin.Context, userID uuid.UUID, role identity.Role) {
	c.Set(middleware.JWTUserIDKey, userID.String())
	c.Set(middleware.JWTRoleKey, string(role))
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.SuccessWithMeta(c, []string{"a", "b"}, 101, 2, 10)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(101), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 11, resp.Meta.TotalPages)
}

func TestPaginated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	Paginated(h, c, &shared.Paginated[string]{Items: []string{"x"}, Total: 1, Page: 1, PageSize: 20})

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.TotalPages)
	assert.Equal(t, []any{"x"}, resp.Data)
}

func TestBaseHandlerCreatedAndNoContent(t *testing.T) {
	h := &BaseHandler{}

	router := gin.New()
	router.POST("/items", func(c *gin.Context) { h.Created(c, gin.H{"id": "1"}) })
	router.DELETE("/items", func(c *gin.Context) { h.NoContent(c) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/items", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/items", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerError_CarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()
	c.Set(middleware.RequestIDKey, "req-123")

	h.NotFound(c, "Product not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "generic not found",
			err:        shared.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
		},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("load order: %w", shared.NewDomainError("INVALID_STATE", "Order already shipped")),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeInvalidState,
		},
		{
			name:       "marketplace code keeps its name",
			err:        shared.NewDomainError("EMAIL_TAKEN", "Email already registered"),
			wantStatus: http.StatusConflict,
			wantCode:   "EMAIL_TAKEN",
		},
		{
			name:       "unlisted invalid code is a bad request",
			err:        shared.NewDomainError("INVALID_PINCODE", "Pincode must be 6 digits"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_PINCODE",
		},
		{
			name:       "unlisted rule violation",
			err:        shared.NewDomainError("EMPTY_CART", "Cart is empty"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "EMPTY_CART",
		},
		{
			name:       "unavailable integration",
			err:        shared.NewDomainError("PAYMENTS_UNAVAILABLE", "Payments are not configured"),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "PAYMENTS_UNAVAILABLE",
		},
		{
			name:       "messaging not configured",
			err:        marketing.ErrMessagingUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   dto.ErrCodeServiceUnavailable,
		},
		{
			name:       "deadline exceeded",
			err:        fmt.Errorf("quote rates: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   dto.ErrCodeUpstream,
		},
		{
			name:       "unknown error",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext()

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandleError_NilIsNoop(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.Bytes())
}

func TestParseID(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	c, _ := newTestContext()
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := h.ParseID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	c, w := newTestContext()
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	_, ok = h.ParseID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidationFormat, decodeResponse(t, w).Error.Code)
}

func TestCurrentActor(t *testing.T) {
	h := &BaseHandler{}

	t.Run("authenticated", func(t *testing.T) {
		c, _ := newTestContext()
		userID := uuid.New()
		setJWTContext(c, userID, identity.RoleManufacturer)

		actor, ok := h.CurrentActor(c)
		require.True(t, ok)
		assert.Equal(t, userID, actor.UserID)
		assert.Equal(t, identity.RoleManufacturer, actor.Role)
	})

	t.Run("anonymous", func(t *testing.T) {
		c, w := newTestContext()

		_, ok := h.CurrentActor(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalUUIDQuery(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	c, _ := newTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/?category_id="+id.String(), nil)
	got, ok := h.OptionalUUIDQuery(c, "category_id")
	require.True(t, ok)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)

	c, _ = newTestContext()
	got, ok = h.OptionalUUIDQuery(c, "category_id")
	assert.True(t, ok)
	assert.Nil(t, got)

	c, w := newTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/?category_id=abc", nil)
	_, ok = h.OptionalUUIDQuery(c, "category_id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryInt(t *testing.T) {
	c, _ := newTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&size=x", nil)

	assert.Equal(t, 3, queryInt(c, "page", 1))
	assert.Equal(t, 20, queryInt(c, "size", 20))
	assert.Equal(t, 7, queryInt(c, "missing", 7))
}
