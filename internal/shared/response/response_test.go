package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-payroll/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	page, meta := response.Paginate(items, 2, 3)
	assert.Equal(t, []int{4, 5, 6}, page)
	assert.Equal(t, response.PaginationMeta{Total: 7, TotalPages: 3, Page: 2, PageSize: 3}, meta)

	page, _ = response.Paginate(items, 9, 3)
	assert.Empty(t, page)

	page, meta = response.Paginate(items, 0, 0)
	assert.Len(t, page, 7)
	assert.Equal(t, 1, meta.Page)
}

func TestError_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	response.Error(c, http.StatusConflict, "CONFLICT", "payslip already exists", nil)

	var body map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
	assert.NotContains(t, body, "data")
	assert.Equal(t, "CONFLICT", body["error"].(map[string]any)["code"])
}
