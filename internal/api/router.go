package api

import (
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	CORSOrigins            []string
	SubscribeRatePerMinute int
}

// NewRouter wires the public and admin routes onto a new gin engine.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(CORS(opts.CORSOrigins))

	h.RegisterRoutes(r.Group(""), opts)
	return r
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, opts RouterOptions) {
	router.GET("/health", h.Health)
	router.GET("/titles", h.Titles)

	limited := router.Group("", RateLimit(opts.SubscribeRatePerMinute))
	{
		limited.POST("/subscribe", h.Subscribe)
		limited.DELETE("/unsubscribe/:token", h.Unsubscribe)
		limited.POST("/admin/login", h.Login)
	}

	admin := router.Group("/admin", AdminAuthMiddleware(h.admin))
	{
		admin.POST("/alerts/run", h.RunAlerts)
		admin.POST("/scrape/run", h.RunScrape)
		admin.GET("/releases/upcoming", h.UpcomingReleases)
	}
}
