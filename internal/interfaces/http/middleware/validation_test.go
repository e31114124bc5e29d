package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/consignment/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settlementInput struct {
	LineID string `json:"line_id" binding:"required,uuid"`
	Sold   int    `json:"sold" binding:"min=0"`
}

type consignmentInput struct {
	CustomerID string            `json:"customer_id" binding:"required,uuid"`
	Lines      []settlementInput `json:"lines" binding:"required,min=1,dive"`
	Status     string            `form:"status" binding:"omitempty,oneof=OPEN PARTIAL CLOSED"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req consignmentInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	router := newValidationRouter()

	body := strings.NewReader(`{"customer_id": "nope", "lines": [{"line_id": "", "sold": -1}]}`)
	req := httptest.NewRequest(http.MethodPost, "/test", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-validation")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-validation", resp.Error.RequestID)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid UUID format", fields["customer_id"])
	assert.Equal(t, "This field is required", fields["line_id"])
	assert.Equal(t, "Must be at least 0", fields["sold"])
}

func TestHandleValidationError_EmptyLines(t *testing.T) {
	router := newValidationRouter()

	body := strings.NewReader(`{"customer_id": "7d3c6a3e-8a4f-4f7a-9a55-0d2b0c9c1f11", "lines": []}`)
	req := httptest.NewRequest(http.MethodPost, "/test", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Must contain at least 1 item(s)")
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	router := newValidationRouter()

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"customer_id":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
}

func TestHandleValidationError_ValidInput(t *testing.T) {
	router := newValidationRouter()

	body := strings.NewReader(`{"customer_id": "7d3c6a3e-8a4f-4f7a-9a55-0d2b0c9c1f11", "lines": [{"line_id": "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", "sold": 2}]}`)
	req := httptest.NewRequest(http.MethodPost, "/test", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetValidationMessage(t *testing.T) {
	type input struct {
		Required string `validate:"required"`
		Name     string `validate:"min=5"`
		Status   string `validate:"oneof=OPEN CLOSED"`
		Quantity int    `validate:"gt=0"`
	}

	v := validator.New()
	err := v.Struct(input{Name: "ab", Status: "X"})
	require.Error(t, err)

	messages := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		messages[e.Field()] = getValidationMessage(e)
	}
	assert.Equal(t, "This field is required", messages["Required"])
	assert.Equal(t, "Must be at least 5 characters", messages["Name"])
	assert.Equal(t, "Must be one of: OPEN CLOSED", messages["Status"])
	assert.Equal(t, "Must be greater than 0", messages["Quantity"])
}

func TestGetRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set(RequestIDHeader, strings.Repeat("a", 200))
	assert.Len(t, GetRequestID(c), MaxRequestIDLength)

	c.Set(RequestIDContextKey, "from-context")
	assert.Equal(t, "from-context", GetRequestID(c))
}
