package recommend

import (
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"discovery-backend/internal/geo"
	"discovery-backend/internal/moods"
	"discovery-backend/internal/shared/server/middleware"
	"discovery-backend/internal/shared/server/respond"
	"discovery-backend/internal/shared/util"
)

const (
	maxMessageRunes = 1000
	moodsMaxAge     = 5 * time.Minute
)

type Handler struct {
	Svc   *Service
	Moods *moods.Table
}

func NewHandler(svc *Service, table *moods.Table) *Handler {
	return &Handler{Svc: svc, Moods: table}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recommendations", h.recommend)
	rg.GET("/moods", h.moods)
}

type recommendRequest struct {
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (h *Handler) recommend(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	message := util.SanitizeText(req.Message)
	if utf8.RuneCountInString(message) > maxMessageRunes {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "message is too long", gin.H{"maxLength": maxMessageRunes})
		return
	}
	var origin *geo.Coordinate
	switch {
	case req.Lat == nil && req.Lon == nil:
	case req.Lat == nil || req.Lon == nil:
		respond.Error(c, http.StatusBadRequest, "invalid_request", "lat and lon must be provided together", nil)
		return
	default:
		o, err := geo.NewCoordinate(*req.Lat, *req.Lon)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
			return
		}
		origin = o
	}

	res := h.Svc.ClassifyAndRecommend(c.Request.Context(), message, origin)
	c.Set(middleware.ProvenanceKey, string(res.Provenance))
	c.Set(middleware.StageKey, string(res.Stage))
	respond.OK(c, res)
}

type moodsResponse struct {
	Version    string           `json:"version"`
	Unclear    string           `json:"unclear"`
	Categories []moods.Category `json:"categories"`
}

func (h *Handler) moods(c *gin.Context) {
	table := h.Moods
	if table == nil {
		table = moods.Default()
	}
	respond.Cached(c, moodsResponse{
		Version:    table.Version(),
		Unclear:    table.Unclear().Name,
		Categories: table.Categories(),
	}, moodsMaxAge)
}
