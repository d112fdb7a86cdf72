package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pipedeck/pipedeck/internal/api/middleware"
	"github.com/pipedeck/pipedeck/internal/config"
)

// PagesHandler renders the marketing site and the dashboard shell. Pages get
// the browser-safe client configuration only; the privileged service key
// never appears in template data.
type PagesHandler struct {
	client config.PublicClientConfig
}

// NewPagesHandler creates a pages handler.
func NewPagesHandler(client config.PublicClientConfig) *PagesHandler {
	return &PagesHandler{client: client}
}

// RegisterRoutes registers the HTML routes. Marketing pages are open, the
// auth pages bounce signed-in visitors to the dashboard, and the dashboard
// pages require a session.
func (h *PagesHandler) RegisterRoutes(router *gin.Engine, session *middleware.SessionMiddleware) {
	router.GET("/", h.page("home", "PipeDeck"))
	router.GET("/platform", h.page("platform", "Platform"))
	router.GET("/pricing", h.page("pricing", "Pricing"))

	authPages := router.Group("/", session.RedirectAuthenticated("/dashboard"))
	{
		authPages.GET("/login", h.page("login", "Sign in"))
		authPages.GET("/signup", h.page("signup", "Create account"))
	}

	dash := router.Group("/dashboard", session.RequireSessionPage("/login"))
	{
		dash.GET("", h.dashboardPage("dashboard", "Overview"))
		dash.GET("/data-sources", h.dashboardPage("data_sources", "Data Sources"))
		dash.GET("/pipelines", h.dashboardPage("pipelines", "Pipelines"))
		dash.GET("/analytics", h.dashboardPage("analytics", "Analytics"))
		dash.GET("/team", h.dashboardPage("team", "Team"))
		dash.GET("/settings", h.dashboardPage("settings", "Settings"))
	}
}

func (h *PagesHandler) page(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, gin.H{
			"Title":  title,
			"Client": h.client,
		})
	}
}

func (h *PagesHandler) dashboardPage(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := GetUserFromContext(c)
		c.HTML(http.StatusOK, name, gin.H{
			"Title":  title,
			"Client": h.client,
			"User":   user,
		})
	}
}
