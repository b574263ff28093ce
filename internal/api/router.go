package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/LJTian/OpportunityHub/internal/scheduler"
	"github.com/LJTian/OpportunityHub/internal/storage"
	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit    = 20
	maxListLimit        = 1000
	defaultPreviewLimit = 15
)

type Server struct {
	sched  *scheduler.Scheduler
	ledger storage.Ledger
}

func NewServer(sched *scheduler.Scheduler, ledger storage.Ledger) *Server {
	return &Server{sched: sched, ledger: ledger}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", s.status)
		v1.POST("/fetch", s.fetch)
		v1.PUT("/target", s.setTarget)
		v1.GET("/opportunities", s.listOpportunities)
		v1.GET("/preview", s.preview)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}

func (s *Server) status(c *gin.Context) {
	st, err := s.sched.Status(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	ok(c, st)
}

// fetch 手动触发一轮采集并同步返回结果；已有一轮在执行时返回 409。
// 客户端断开不会中断这一轮，已投递的条目照常记账。
func (s *Server) fetch(c *gin.Context) {
	rep, err := s.sched.RunOnce(context.WithoutCancel(c.Request.Context()), scheduler.TriggerOnDemand)
	if errors.Is(err, scheduler.ErrBusy) {
		fail(c, http.StatusConflict, "busy", "a fetch cycle is already running, try again later")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	ok(c, rep)
}

type setTargetRequest struct {
	Target string `json:"target"`
}

func (s *Server) setTarget(c *gin.Context) {
	var req setTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", "invalid json body")
		return
	}
	target := strings.TrimSpace(req.Target)
	if target == "" {
		fail(c, http.StatusBadRequest, "invalid_request", "target is required")
		return
	}
	s.sched.SetTarget(target)
	ok(c, gin.H{"target": target})
}

func parseLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 || limit > maxListLimit {
		return def
	}
	return limit
}

func (s *Server) listOpportunities(c *gin.Context) {
	entries, err := s.ledger.Entries(c.Request.Context(), parseLimit(c, defaultListLimit))
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	ok(c, entries)
}

type previewItem struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Type     string `json:"type"`
	Source   string `json:"source"`
	Deadline string `json:"deadline,omitempty"`
}

// preview 展示当前各数据源上的机会，不做账本去重也不投递
func (s *Server) preview(c *gin.Context) {
	items := s.sched.Preview(c.Request.Context(), parseLimit(c, defaultPreviewLimit))
	out := make([]previewItem, 0, len(items))
	for _, it := range items {
		p := previewItem{Title: it.Title, Link: it.Link, Type: it.Type, Source: it.Source}
		if it.Deadline != nil {
			p.Deadline = it.Deadline.Format("2006-01-02")
		}
		out = append(out, p)
	}
	ok(c, out)
}
