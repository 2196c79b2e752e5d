package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/sitesearch/internal/history"
)

// HistoryHandler exposes search history, click tracking and bookmarks.
// The underlying store degrades to empty defaults on storage failure, so
// these endpoints never surface a 500 for a broken backend.
type HistoryHandler struct {
	Store *history.Store
}

func (h *HistoryHandler) Register(g *echo.Group) {
	g.GET("/history", h.recent)
	g.DELETE("/history", h.clear)
	g.POST("/history/click", h.click)
	g.GET("/history/stats", h.stats)
	g.GET("/bookmarks", h.bookmarks)
	g.POST("/bookmarks/toggle", h.toggleBookmark)
}

func (h *HistoryHandler) recent(c echo.Context) error {
	limit := history.DefaultMaxEntries
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": h.Store.GetRecent(c.Request().Context(), limit),
	})
}

func (h *HistoryHandler) clear(c echo.Context) error {
	h.Store.Clear(c.Request().Context())
	return c.NoContent(http.StatusOK)
}

type clickRequest struct {
	Query string `json:"query"`
	URL   string `json:"url"`
}

func (h *HistoryHandler) click(c echo.Context) error {
	var req clickRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" || req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query and url are required")
	}
	h.Store.TrackResultClick(c.Request().Context(), req.Query, req.URL)
	return c.NoContent(http.StatusNoContent)
}

func (h *HistoryHandler) stats(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"stats":        h.Store.GetStats(ctx),
		"trend":        h.Store.GetTrend(ctx),
		"success_rate": h.Store.SuccessRate(ctx),
	})
}

func (h *HistoryHandler) bookmarks(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"bookmarks": h.Store.Bookmarks(c.Request().Context()),
	})
}

type bookmarkRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func (h *HistoryHandler) toggleBookmark(c echo.Context) error {
	var req bookmarkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	saved := h.Store.ToggleBookmark(c.Request().Context(), req.URL, req.Title)
	return c.JSON(http.StatusOK, map[string]bool{"bookmarked": saved})
}
