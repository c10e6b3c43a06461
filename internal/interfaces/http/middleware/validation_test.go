package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type businessInput struct {
	GSTIN   string `json:"gstin" binding:"omitempty,gstin"`
	Pincode string `json:"pincode" binding:"required,pincode"`
	Phone   string `json:"phone" binding:"required,phone_in"`
}

func TestCustomValidators(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidators(v)

	valid := businessInput{GSTIN: "27AAPFU0939F1ZV", Pincode: "400001", Phone: "9876543210"}
	assert.NoError(t, v.Struct(valid))

	err := v.Struct(businessInput{GSTIN: "27AAPFU0939F1Z", Pincode: "0400", Phone: "12345"})
	require.Error(t, err)
	resp := FormatValidationErrors(err, "req-1")
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Tag
	}
	assert.Equal(t, map[string]string{"gstin": "gstin", "pincode": "pincode", "phone": "phone_in"}, fields)
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var in businessInput
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"pincode":"12","phone":"9876543210"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"pincode"`)
}
