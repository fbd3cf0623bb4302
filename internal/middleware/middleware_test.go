package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
	seen   string
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	v.seen = token
	if v.claims == nil {
		return nil, appErrors.Wrap(errors.New("bad signature"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	return v.claims, nil
}

type observerStub struct {
	routes   []string
	statuses []int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.routes = append(o.routes, path)
	o.statuses = append(o.statuses, status)
}

func serveWith(r *gin.Engine, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		header string
		claims *models.JWTClaims
		status int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", claims: &models.JWTClaims{}, status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer  ", claims: &models.JWTClaims{}, status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer abc", status: http.StatusUnauthorized},
		{name: "valid", header: "bearer abc", claims: &models.JWTClaims{UserID: "u1", Role: models.RoleStaff}, status: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := &validatorStub{claims: tc.claims}
			r := gin.New()
			r.GET("/secure", JWT(v), func(c *gin.Context) {
				claims, _ := c.Get(ContextUserKey)
				assert.Equal(t, tc.claims, claims)
				c.Status(http.StatusOK)
			})

			w := serveWith(r, tc.header)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "abc", v.seen)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	build := func(claims *models.JWTClaims) *gin.Engine {
		r := gin.New()
		r.GET("/secure", func(c *gin.Context) {
			if claims != nil {
				c.Set(ContextUserKey, claims)
			}
		}, RequireRoles(models.RoleManager, models.RoleStaff), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	assert.Equal(t, http.StatusUnauthorized, serveWith(build(nil), "").Code)
	assert.Equal(t, http.StatusForbidden, serveWith(build(&models.JWTClaims{Role: models.RoleTeacher}), "").Code)
	assert.Equal(t, http.StatusOK, serveWith(build(&models.JWTClaims{Role: models.RoleManager}), "").Code)
	assert.Equal(t, http.StatusOK, serveWith(build(&models.JWTClaims{Role: models.RoleStaff}), "").Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obs := &observerStub{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/sessions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/s1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/42", nil))

	assert.Equal(t, []string{"/sessions/:id", unmatchedRoute}, obs.routes)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, obs.statuses)
}
