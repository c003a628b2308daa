package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
	"RegulatoryScanner/internal/usecase"
)

type handlers struct {
	crawler    Crawler
	articles   Articles
	sessions   ports.SessionResolver
	cronSecret string
	cookieName string
	logger     *slog.Logger
}

type crawlRequest struct {
	Source string `json:"source"`
}

type statusRequest struct {
	ArticleID string `json:"articleId"`
	Status    string `json:"status"`
}

type reclassifyRequest struct {
	ArticleID string `json:"articleId"`
}

type runSummary struct {
	TotalFound    int `json:"totalFound"`
	TotalFiltered int `json:"totalFiltered"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) crawl(c *gin.Context) {
	var req crawlRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, &domain.ValidationError{Field: "body", Err: err})
		return
	}

	var sources []domain.Source
	if strings.TrimSpace(req.Source) != "" {
		source, err := domain.ParseSource(req.Source)
		if err != nil {
			writeError(c, err)
			return
		}
		sources = []domain.Source{source}
	}

	report, err := h.crawler.Run(c.Request.Context(), usecase.TriggerManual, sources)
	if err == nil && report.StorageFailed() {
		err = errors.New("storage error while persisting articles")
	}
	if err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"results": nonNil(report.Results),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": nonNil(report.Results)})
}

func (h *handlers) cronCrawl(c *gin.Context) {
	if !tokenMatches(bearerToken(c.Request), h.cronSecret) {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	report, err := h.crawler.Run(c.Request.Context(), usecase.TriggerCron, nil)
	if errors.Is(err, domain.ErrRunInProgress) {
		writeError(c, err)
		return
	}

	body := gin.H{
		"success":   err == nil && !report.StorageFailed(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"fda":       report.Result(domain.SourceFDA),
		"gacc":      report.Result(domain.SourceGACC),
		"summary":   runSummary{TotalFound: report.TotalFound(), TotalFiltered: report.TotalFiltered()},
	}
	if err != nil || report.StorageFailed() {
		if err != nil {
			body["error"] = err.Error()
		} else {
			body["error"] = "storage error while persisting articles"
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *handlers) listArticles(c *gin.Context) {
	filter, err := usecase.ParseFilter(c.Query("source"), c.Query("status"), c.Query("minRelevance"), c.Query("limit"))
	if err != nil {
		writeError(c, err)
		return
	}

	articles, err := h.articles.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	articles = nonNil(articles)
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(articles), "articles": articles})
}

func (h *handlers) getArticle(c *gin.Context) {
	article, err := h.articles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "article": article})
}

func (h *handlers) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &domain.ValidationError{Field: "body", Err: err})
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		writeError(c, &domain.ValidationError{Field: "status", Err: domain.ErrMissingField})
		return
	}

	status, err := h.articles.UpdateStatus(c.Request.Context(), req.ArticleID, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": fmt.Sprintf("Article status updated to %s", status)})
}

func (h *handlers) reclassify(c *gin.Context) {
	var req reclassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &domain.ValidationError{Field: "body", Err: err})
		return
	}

	article, err := h.articles.Reclassify(c.Request.Context(), req.ArticleID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "article": article})
}

func (h *handlers) clientNews(c *gin.Context) {
	token := bearerToken(c.Request)
	if token == "" {
		if cookie, err := c.Cookie(h.cookieName); err == nil {
			token = strings.TrimSpace(cookie)
		}
	}
	if token == "" || h.sessions == nil {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	clientID, err := h.sessions.Resolve(c.Request.Context(), token)
	if errors.Is(err, domain.ErrUnauthorized) {
		writeError(c, err)
		return
	}
	if err != nil {
		h.logger.Warn("client session lookup failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"news": []domain.Article{}})
		return
	}

	news, err := h.articles.RelevantNews(c.Request.Context(), clientID)
	if err != nil {
		h.logger.Warn("client news lookup failed", "client_id", clientID, "error", err)
		news = nil
	}
	c.JSON(http.StatusOK, gin.H{"news": nonNil(news)})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
