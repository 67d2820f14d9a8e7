package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/platform/response"
)

// uuidParam parses a path parameter, writing 400 on failure.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUIDQuery parses a query parameter that may be absent.
func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return nil, false
	}
	return &id, true
}

// intervalQuery reads pickup and dropoff as RFC3339 query parameters.
func intervalQuery(c *gin.Context) (domain.Interval, bool) {
	pickup, err := time.Parse(time.RFC3339, c.Query("pickup"))
	if err != nil {
		response.BadRequest(c, "pickup must be an RFC3339 timestamp")
		return domain.Interval{}, false
	}
	dropoff, err := time.Parse(time.RFC3339, c.Query("dropoff"))
	if err != nil {
		response.BadRequest(c, "dropoff must be an RFC3339 timestamp")
		return domain.Interval{}, false
	}
	iv, err := domain.NewInterval(pickup, dropoff)
	if err != nil {
		response.Error(c, err)
		return domain.Interval{}, false
	}
	return iv, true
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
