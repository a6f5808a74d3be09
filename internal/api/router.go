package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/LJTian/NewsMailer/internal/notifier"
	"github.com/LJTian/NewsMailer/internal/pipeline"
	"github.com/LJTian/NewsMailer/internal/scheduler"
	"github.com/gin-gonic/gin"
)

const previewTimeout = 30 * time.Second

// RunController 调度器对外暴露的最小接口
type RunController interface {
	RunOnce(ctx context.Context) (pipeline.Result, error)
	Status() scheduler.Status
}

// Previewer 渲染当前头条但不发信
type Previewer interface {
	Preview(ctx context.Context) (notifier.Payload, error)
}

type Server struct {
	runs    RunController
	preview Previewer
}

func NewServer(runs RunController, preview Previewer) *Server {
	return &Server{runs: runs, preview: preview}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", s.status)
		v1.GET("/preview", s.previewMail)
		v1.POST("/runs", s.triggerRun)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    s.runs.Status(),
	})
}

func (s *Server) previewMail(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), previewTimeout)
	defer cancel()

	p, err := s.preview.Preview(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "extract_failed",
			"message": err.Error(),
		})
		return
	}
	c.Header("X-Mail-Subject", p.Subject)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(p.Body))
}

// triggerRun 同步执行一轮；已有运行在进行时返回 409
func (s *Server) triggerRun(c *gin.Context) {
	// 运行一旦开始就跑到结束，不随请求断开而取消
	res, err := s.runs.RunOnce(context.WithoutCancel(c.Request.Context()))
	switch {
	case errors.Is(err, scheduler.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"code":    "run_in_progress",
			"message": err.Error(),
		})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "run_failed",
			"message": err.Error(),
			"data":    res,
		})
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"code":    "ok",
			"message": "success",
			"data":    res,
		})
	}
}

// BasicAuthMiddleware 为整个站点增加一个简单的 Basic Auth 访问密码。
// /health 不做认证，便于健康检查。
func BasicAuthMiddleware(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
