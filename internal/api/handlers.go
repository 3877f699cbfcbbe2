package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ety001/hive-social-api/internal/broadcast"
	"github.com/ety001/hive-social-api/internal/feed"
	"github.com/ety001/hive-social-api/internal/hive"
	"github.com/ety001/hive-social-api/internal/profile"
	"github.com/ety001/hive-social-api/internal/wallet"
)

// Handler handles API requests
type Handler struct {
	caller   hive.Caller
	feed     *feed.Feed
	profiles *profile.Service
	gateway  *broadcast.Gateway
	logger   *zap.Logger
	pageSize int
	workers  int
}

// NewHandler creates a new API handler
func NewHandler(caller hive.Caller, f *feed.Feed, profiles *profile.Service, gateway *broadcast.Gateway, logger *zap.Logger, pageSize, workers int) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		caller:   caller,
		feed:     f,
		profiles: profiles,
		gateway:  gateway,
		logger:   logger,
		pageSize: pageSize,
		workers:  workers,
	}
}

func (h *Handler) pageSizeParam(c *gin.Context) int {
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.pageSize)))
	if pageSize < 1 || pageSize > 100 {
		pageSize = h.pageSize
	}
	return pageSize
}

// accountsParam merges the path account with the optional
// comma-separated accounts query into one list
func accountsParam(c *gin.Context) []string {
	accounts := []string{c.Param("account")}
	if extra := c.Query("accounts"); extra != "" {
		accounts = append(accounts, strings.Split(extra, ",")...)
	}
	return accounts
}

// GetFeed handles GET /api/v1/feed/:sort
func (h *Handler) GetFeed(c *gin.Context) {
	sort := feed.SortMode(c.Param("sort"))
	tag := c.Query("tag")
	limit := h.pageSizeParam(c)

	var cursor *feed.Cursor
	if author := c.Query("start_author"); author != "" {
		cursor = &feed.Cursor{
			StartAuthor:   author,
			StartPermlink: c.Query("start_permlink"),
		}
	}

	ctx := c.Request.Context()
	page, err := h.feed.Page(ctx, sort, tag, cursor, limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, feed.ErrInvalidSort) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetProfile handles GET /api/v1/accounts/:account/profile
func (h *Handler) GetProfile(c *gin.Context) {
	account := c.Param("account")

	ctx := c.Request.Context()
	result, err := h.profiles.Fetch(ctx, account)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, profile.ErrAccountNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactions handles GET /api/v1/accounts/:account/transactions
func (h *Handler) GetTransactions(c *gin.Context) {
	pageSize := h.pageSizeParam(c)
	pages, _ := strconv.Atoi(c.DefaultQuery("pages", "1"))
	if pages < 1 {
		pages = 1
	}

	ctx := c.Request.Context()
	agg := wallet.NewAggregator(h.caller, h.logger, pageSize, h.workers)
	page := agg.Fetch(ctx, accountsParam(c))
	for i := 1; i < pages && page.HasMore; i++ {
		page = agg.LoadMore(ctx)
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": page.Transactions,
		"has_more":     page.HasMore,
		"error":        page.Error,
		"stats":        agg.Stats(),
	})
}

// ExportTransactions handles GET /api/v1/accounts/:account/transactions/export
func (h *Handler) ExportTransactions(c *gin.Context) {
	account := c.Param("account")

	ctx := c.Request.Context()
	agg := wallet.NewAggregator(h.caller, h.logger, h.pageSizeParam(c), h.workers)
	page := agg.Fetch(ctx, accountsParam(c))
	if page.Error != "" && len(page.Transactions) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": page.Error})
		return
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	var buf bytes.Buffer

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		if err := wallet.WriteCSV(&buf, page.Transactions); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		filename := fmt.Sprintf("transactions-%s-%s.csv", account, stamp)
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	case "json":
		if err := wallet.WriteJSON(&buf, account, page.Transactions); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		filename := fmt.Sprintf("transactions-%s-%s.json", account, stamp)
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/json", buf.Bytes())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or json"})
	}
}

// VoteRequest is the vote submission payload
type VoteRequest struct {
	Voter    string `json:"voter" binding:"required"`
	Author   string `json:"author" binding:"required"`
	Permlink string `json:"permlink" binding:"required"`
	Weight   int    `json:"weight"`
}

// PostVote handles POST /api/v1/vote
func (h *Handler) PostVote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.feed.Vote(c.Request.Context(), req.Voter, req.Author, req.Permlink, req.Weight)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, broadcast.ErrSignerUnavailable):
			status = http.StatusServiceUnavailable
		case errors.Is(err, feed.ErrVoteInFlight):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostComment handles POST /api/v1/comment
func (h *Handler) PostComment(c *gin.Context) {
	var req broadcast.Comment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Author == "" || req.Permlink == "" || req.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "author, permlink and body are required"})
		return
	}

	if err := h.gateway.SubmitComment(c.Request.Context(), req); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, broadcast.ErrSignerUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Health handles GET /api/v1/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "signer": h.gateway.Available()})
}
