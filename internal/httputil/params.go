package httputil

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/helperhq/helper/internal/errors"
)

// UUIDParam parses the named route parameter as a UUID. A malformed id is a
// validation failure, not a lookup miss.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	value := c.Param(name)
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperrors.Validation(
			fmt.Sprintf("%s must be a valid uuid", name),
		)
	}
	return id, nil
}

// BindJSON decodes the request body into target. Malformed bodies are
// validation failures so clients get the envelope instead of a bare 400.
func BindJSON(c *gin.Context, target any) error {
	if err := c.ShouldBindJSON(target); err != nil {
		return apperrors.Validation("invalid request body: " + err.Error())
	}
	return nil
}
