package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

const msgInvalidPayload = "Invalid JSON payload"

// bindJSON decodes the request body into dest. An empty body leaves dest
// untouched so required-field checks report the missing fields.
func bindJSON(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return appErrors.Wrap(err, appErrors.KindBadRequest, appErrors.ErrBadRequest.Status, msgInvalidPayload)
	}
	return nil
}

func pageFromQuery(c *gin.Context) models.PageRequest {
	return models.ParsePageRequest(c.Query("page"), c.Query("limit"))
}
