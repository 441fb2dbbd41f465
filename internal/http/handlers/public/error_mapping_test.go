package public

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/assem2023-habib/shehrezad/internal/http/response"
	"github.com/assem2023-habib/shehrezad/internal/service"

	"github.com/gin-gonic/gin"
)

func decodeCouponError(t *testing.T, err error) response.Response {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/coupons/apply", nil)

	respondCouponError(c, err)

	var resp response.Response
	if decodeErr := json.Unmarshal(w.Body.Bytes(), &resp); decodeErr != nil {
		t.Fatalf("decode response failed: %v", decodeErr)
	}
	return resp
}

func TestCouponErrorResponseCodes(t *testing.T) {
	// 资格类拒绝是权限问题，不是请求格式问题
	if resp := decodeCouponError(t, service.ErrCouponNotEligible); resp.StatusCode != response.CodeForbidden {
		t.Fatalf("expected business code %d for ineligible coupon, got %d", response.CodeForbidden, resp.StatusCode)
	}
	if resp := decodeCouponError(t, service.ErrCouponMinAmount); resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected business code %d for minimum amount, got %d", response.CodeBadRequest, resp.StatusCode)
	}
	if resp := decodeCouponError(t, service.ErrCouponNotFound); resp.StatusCode != response.CodeNotFound {
		t.Fatalf("expected business code %d for unknown coupon, got %d", response.CodeNotFound, resp.StatusCode)
	}
}
