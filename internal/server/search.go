package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/sitesearch/internal/search"
	"github.com/mohammad-safakhou/sitesearch/internal/session"
	"github.com/mohammad-safakhou/sitesearch/internal/suggest"
)

// SearchHandler serves the interactive search surface: queries, filter and
// sort changes, suggestions, related terms and keyboard events.
type SearchHandler struct {
	Sessions *SessionManager
	Engine   *search.Engine
	Suggest  *suggest.Engine
}

func (h *SearchHandler) Register(g *echo.Group) {
	g.GET("/search", h.search)
	g.GET("/search/categories", h.categories)
	g.POST("/search/key", h.key)
	g.GET("/suggest", h.suggest)
	g.GET("/related", h.related)
}

type searchResponse struct {
	SID string `json:"sid"`
	session.Snapshot
	Categories map[string]int `json:"categories"`
}

// search runs the query exactly once with the filters and sort mode from
// the request; a second, unfiltered pass feeds the category counts.
func (h *SearchHandler) search(c echo.Context) error {
	sess := h.Sessions.Get(c.QueryParam("sid"))
	ctx := c.Request().Context()
	q := c.QueryParam("q")

	sess.UpdateOptions(c.QueryParams()["filters"], search.ParseSortMode(c.QueryParam("sort")))
	snap := sess.SearchNow(ctx, q)

	unfiltered := h.Engine.Search(q, nil, search.SortRelevance)
	return c.JSON(http.StatusOK, searchResponse{
		SID:        sess.ID(),
		Snapshot:   snap,
		Categories: search.CategoryCounts(unfiltered),
	})
}

// categories returns the unfiltered per-type counts for a query so the
// filter badges can stay live while a filter is active.
func (h *SearchHandler) categories(c echo.Context) error {
	results := h.Engine.Search(c.QueryParam("q"), nil, search.SortRelevance)
	return c.JSON(http.StatusOK, search.CategoryCounts(results))
}

type keyRequest struct {
	SID string `json:"sid"`
	Key string `json:"key"`
}

type keyResponse struct {
	Consumed     bool   `json:"consumed"`
	Cursor       int    `json:"cursor"`
	Announcement string `json:"announcement,omitempty"`
	NavigatedURL string `json:"navigated_url,omitempty"`
}

// key feeds one keyboard event into the session's navigation controller.
func (h *SearchHandler) key(c echo.Context) error {
	var req keyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}
	sess := h.Sessions.Get(req.SID)
	consumed := sess.HandleKey(req.Key)
	snap := sess.Snapshot(c.Request().Context())
	return c.JSON(http.StatusOK, keyResponse{
		Consumed:     consumed,
		Cursor:       snap.State.CursorIndex,
		Announcement: sess.LastAnnouncement(),
		NavigatedURL: sess.NavigatedURL(),
	})
}

func (h *SearchHandler) suggest(c echo.Context) error {
	q := c.QueryParam("q")
	suggestions := h.Suggest.Suggest(c.Request().Context(), q)
	if suggestions == nil {
		suggestions = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"preview":     h.Engine.PreviewFor(q),
	})
}

func (h *SearchHandler) related(c echo.Context) error {
	related := h.Suggest.RelatedTerms(c.Request().Context(), c.QueryParam("q"))
	if related == nil {
		related = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"related_terms": related})
}
