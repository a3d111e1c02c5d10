package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
)

const paramKeyPrefix = "param:"

// RequireIDParams parses the named path parameters as positive integers and
// stores them for IDParam. A malformed id is a 404: no such object exists.
func RequireIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			raw := c.Param(name)
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				apierrors.NotFound(c, fmt.Sprintf("Invalid %s", name))
				return
			}
			c.Set(paramKeyPrefix+name, id)
		}
		c.Next()
	}
}

// IDParam returns a path parameter parsed by RequireIDParams.
func IDParam(c *gin.Context, name string) uint64 {
	if v, ok := c.Get(paramKeyPrefix + name); ok {
		if id, ok := v.(uint64); ok {
			return id
		}
	}
	id, _ := strconv.ParseUint(c.Param(name), 10, 64)
	return id
}
