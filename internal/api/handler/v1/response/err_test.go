package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func render(e *Err) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	RenderErr(ctx, e)
	return rec
}

func TestRenderErr(t *testing.T) {
	rec := render(ErrConflict(errors.New("graduate already has a pending or waitlisted request")))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"status":"Conflict","error":"graduate already has a pending or waitlisted request"}`, rec.Body.String())
}

func TestRenderErr_InternalHidesCause(t *testing.T) {
	rec := render(ErrInternalServerError(errors.New("pq: connection refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestErrNotFound(t *testing.T) {
	rec := render(ErrNotFound("ticket", "ID", 42))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"Not Found","error":"ticket with ID 42 not found"}`, rec.Body.String())

	rec = render(ErrNotFound("graduate", "", nil))
	assert.JSONEq(t, `{"status":"Not Found","error":"graduate not found"}`, rec.Body.String())
}
