package handler

import (
	"errors"
	"net/http"
	"strings"

	"fundraising/internal/rbac"
	"fundraising/internal/workflow"
	"fundraising/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// respondError maps service errors to HTTP statuses: workflow validation
// failures are 400, permission denials are 403, missing records are 404 and
// everything else is 500.
func respondError(c *gin.Context, err error) {
	switch {
	case workflow.IsValidationError(err):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case rbac.IsPermissionError(err):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// actorID pulls the authenticated user id out of the gin context.
func actorID(c *gin.Context) string {
	v, _ := c.Get("userID")
	s, _ := v.(string)
	return s
}

// actorUUID is actorID parsed as a uuid, nil when missing or malformed.
func actorUUID(c *gin.Context) *uuid.UUID {
	id, err := uuid.Parse(actorID(c))
	if err != nil {
		return nil
	}
	return &id
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
