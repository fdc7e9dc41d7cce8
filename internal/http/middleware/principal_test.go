package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/regiondesk/backend/internal/models"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, claims SessionClaims) string {
	t.Helper()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func principalRouter() (*gin.Engine, *models.Principal) {
	gin.SetMode(gin.TestMode)
	captured := &models.Principal{}
	r := gin.New()
	r.Use(Principal(testSecret))
	r.GET("/whoami", func(c *gin.Context) {
		*captured = PrincipalFrom(c)
		c.Status(http.StatusOK)
	})
	return r, captured
}

func TestPrincipalParsesClaims(t *testing.T) {
	r, captured := principalRouter()
	token := mintToken(t, SessionClaims{
		Email:      "Staff@Example.COM",
		Role:       "Staff",
		Region:     "Asia-Pacific",
		ExternalID: 77,
		GroupIDs:   []int{6},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "user-1",
		},
	})

	req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if captured.ID != "user-1" || captured.Role != models.RoleStaff {
		t.Fatalf("unexpected principal: %+v", captured)
	}
	if captured.Email != "staff@example.com" || captured.Region != "asia-pacific" {
		t.Fatalf("claims must be normalized: %+v", captured)
	}
	if captured.ExternalID != 77 || len(captured.GroupIDs) != 1 {
		t.Fatalf("identity fields lost: %+v", captured)
	}
}

func TestPrincipalRejectsMissingToken(t *testing.T) {
	r, _ := principalRouter()
	req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestPrincipalRejectsBadSignature(t *testing.T) {
	r, _ := principalRouter()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{Role: "admin"})
	signed, _ := token.SignedString([]byte("wrong-secret"))
	req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestPrincipalRejectsUnknownRole(t *testing.T) {
	r, _ := principalRouter()
	token := mintToken(t, SessionClaims{Role: "superuser"})
	req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRoleGuards(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SetPrincipal(models.Principal{Role: models.RoleStaff}))
	r.GET("/staff", RequireStaff(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest(http.MethodGet, "/staff", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("staff guard should admit staff, got %d", w.Code)
	}

	req, _ = http.NewRequest(http.MethodGet, "/admin", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("admin guard should refuse staff, got %d", w.Code)
	}
}
