package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BuildInfo 版本信息，由 main 在编译时注入
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GitBranch string `json:"git_branch"`
}

// NewRouter 注册中间件与全部路由
func NewRouter(h *SegmentHandler, info BuildInfo) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Logger())
	r.Use(CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": info.Version,
		})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, info)
	})

	api := r.Group("/api/v1")
	{
		api.POST("/segment", h.Segment)
		api.GET("/result/:key", h.GetResult)
	}
	return r
}
