package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"innsight/models"
	"innsight/storage"
)

func (a *API) listings(c *gin.Context, city string) {
	filter := storage.ListingFilter{
		City:          city,
		RoomType:      c.Query("room_type"),
		Neighbourhood: c.Query("neighbourhood"),
		Limit:         50,
	}
	if v, err := strconv.ParseFloat(c.Query("min_price"), 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil {
		filter.MaxPrice = &v
	}
	if v, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil && v > 0 && v <= 500 {
		filter.Limit = v
	}
	if v, err := strconv.ParseInt(c.Query("offset"), 10, 64); err == nil && v > 0 {
		filter.Offset = v
	}

	listings, err := a.insights.Listings(c.Request.Context(), filter)
	if err != nil {
		a.fail(c, err)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	c.JSON(http.StatusOK, gin.H{
		"city":     city,
		"count":    len(listings),
		"listings": listings,
	})
}

func (a *API) listing(c *gin.Context, city string) {
	found, err := a.insights.Listing(c.Request.Context(), city, c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	if found == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}
	c.JSON(http.StatusOK, found)
}
