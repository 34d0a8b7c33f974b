// Package handlers is the HTTP glue over the insight service: it parses
// request parameters, calls the service and writes JSON. No domain
// logic lives here.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"innsight/config"
	"innsight/services"
	"innsight/utils"
)

// API carries the dependencies of all route handlers.
type API struct {
	cfg      *config.Config
	insights *services.InsightService
	logger   *utils.Logger
}

// NewAPI wires the handlers to the insight service.
func NewAPI(cfg *config.Config, insights *services.InsightService, logger *utils.Logger) *API {
	return &API{cfg: cfg, insights: insights, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (a *API) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	analytics := r.Group("/api/analytics/:city")
	{
		analytics.GET("/price-stats", a.cityHandler(a.priceStats))
		analytics.GET("/room-types", a.cityHandler(a.roomTypes))
		analytics.GET("/occupancy", a.cityHandler(a.occupancy))
		analytics.GET("/top-hosts", a.cityHandler(a.topHosts))
		analytics.GET("/sentiment", a.cityHandler(a.sentiment))
		analytics.GET("/sentiment/by-neighbourhood", a.cityHandler(a.sentimentByNeighbourhood))
		analytics.GET("/wordcloud", a.cityHandler(a.wordCloud))
	}

	listings := r.Group("/api/listings/:city")
	{
		listings.GET("", a.cityHandler(a.listings))
		listings.GET("/neighbourhoods", a.cityHandler(a.neighbourhoods))
		listings.GET("/room-types", a.cityHandler(a.roomTypeList))
		listings.GET("/:id", a.cityHandler(a.listing))
	}

	return r
}

// cityHandler validates the city path parameter before dispatching.
func (a *API) cityHandler(fn func(c *gin.Context, city string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		city := c.Param("city")
		if !a.cfg.KnownCity(city) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown city: " + city})
			return
		}
		fn(c, city)
	}
}

func (a *API) fail(c *gin.Context, err error) {
	a.logger.Error("[api] %s: %v", c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
}

func (a *API) priceStats(c *gin.Context, city string) {
	report, err := a.insights.PriceReport(c.Request.Context(), city)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) roomTypes(c *gin.Context, city string) {
	report, err := a.insights.RoomTypeReport(c.Request.Context(), city)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) occupancy(c *gin.Context, city string) {
	report, err := a.insights.OccupancyReport(c.Request.Context(), city)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) topHosts(c *gin.Context, city string) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	report, err := a.insights.TopHostsReport(c.Request.Context(), city, limit)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) sentiment(c *gin.Context, city string) {
	report, err := a.insights.SentimentReport(c.Request.Context(), city)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) sentimentByNeighbourhood(c *gin.Context, city string) {
	report, err := a.insights.SentimentByNeighbourhood(c.Request.Context(), city)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) neighbourhoods(c *gin.Context, city string) {
	values, err := a.insights.Neighbourhoods(c.Request.Context(), city)
	if err != nil {
		a.fail(c, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"city": city, "neighbourhoods": values})
}

func (a *API) roomTypeList(c *gin.Context, city string) {
	values, err := a.insights.RoomTypes(c.Request.Context(), city)
	if err != nil {
		a.fail(c, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"city": city, "room_types": values})
}

func (a *API) wordCloud(c *gin.Context, city string) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	report, err := a.insights.WordCloud(
		c.Request.Context(), city,
		c.Query("neighbourhood"), c.Query("sentiment"), limit)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
