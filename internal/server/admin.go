package server

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohammad-safakhou/sitesearch/internal/history"
	"github.com/mohammad-safakhou/sitesearch/internal/index"
	"github.com/mohammad-safakhou/sitesearch/internal/runtime"
)

// AdminHandler serves the analytics dashboard behind a single shared admin
// password, verified against a bcrypt hash from config.
type AdminHandler struct {
	History      *history.Store
	Index        *index.Store
	Secret       []byte
	PasswordHash string
	Logger       *log.Logger
}

func (a *AdminHandler) Register(g *echo.Group) {
	if a.Logger == nil {
		a.Logger = log.New(log.Writer(), "[ADMIN] ", log.LstdFlags)
	}
	g.POST("/login", a.login)

	protected := g.Group("")
	protected.Use(runtime.EchoAuthMiddleware(a.Secret))
	protected.GET("/analytics", a.analytics)
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

func (a *AdminHandler) login(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if a.PasswordHash == "" {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "admin access not configured")
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	signed, err := runtime.SignJWT("admin", a.Secret, 24*time.Hour)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = signed
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteLaxMode
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, map[string]string{"token": signed})
}

func (a *AdminHandler) analytics(c echo.Context) error {
	ctx := c.Request().Context()
	if sub, ok := runtime.SubjectFromContext(ctx); ok && a.Logger != nil {
		a.Logger.Printf("analytics requested by %s", sub)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"stats":           a.History.GetStats(ctx),
		"trend":           a.History.GetTrend(ctx),
		"success_rate":    a.History.SuccessRate(ctx),
		"common_terms":    a.History.CommonTerms(ctx, 10),
		"clicked_queries": a.History.ClickedQueries(ctx),
		"index_documents": a.Index.Count(),
		"index_ready":     a.Index.Ready(),
	})
}
