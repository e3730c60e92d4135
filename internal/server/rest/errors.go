package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	msgUnauthorized = "Unauthorized"
	msgNotFound     = "Not found"
	msgInternal     = "Internal Server Error"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps service errors to status codes. Content that exists but
// may not be read is reported as absent.
func (s *HTTPServer) writeError(c *gin.Context, err error) {
	var verr *common.ValidationError

	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse{msgUnauthorized})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{verr.Msg})
	case errors.Is(err, common.ErrorNoContent):
		c.JSON(http.StatusBadRequest, errorResponse{"A folder doesn't have content"})
	case errors.Is(err, common.ErrorStorageWrite):
		c.JSON(http.StatusBadRequest, errorResponse{"Cannot store file"})
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusNotFound, errorResponse{msgNotFound})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{msgInternal})
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{msgUnauthorized})
}
