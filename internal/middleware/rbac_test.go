package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/sunrise-academy/portal-api/internal/models"
)

func performWithRole(t *testing.T, role models.UserRole, allowed ...models.UserRole) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/probe", func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", Role: role, FullName: "Test User"})
		c.Next()
	}, RequireRoles(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	assert.Equal(t, http.StatusOK, performWithRole(t, models.RoleAdmin, models.RoleAdmin))
}

func TestRBACRejectsWrongRole(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, performWithRole(t, models.RoleStudent, models.RoleAdmin))
}

func TestRBACPendingStudentPassesStudentGate(t *testing.T) {
	assert.Equal(t, http.StatusOK, performWithRole(t, models.RolePendingStudent, models.RoleStudent))
}

func TestRBACPendingParentPassesParentGate(t *testing.T) {
	assert.Equal(t, http.StatusOK, performWithRole(t, models.RolePendingParent, models.RoleParent))
}

func TestRBACPendingParentRejectedFromStudentGate(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, performWithRole(t, models.RolePendingParent, models.RoleStudent))
}

func TestRBACRejectedStudentKeepsNoAccess(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, performWithRole(t, models.RoleRejectedStudent, models.RoleStudent))
	assert.Equal(t, http.StatusForbidden, performWithRole(t, models.RoleRejectedStudent, models.RoleAdmin))
}

func TestRBACMissingClaimsUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/probe", RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
