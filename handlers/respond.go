package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"store-rating-server/usecases"
)

const msgInternal = "Internal server error"

// RespondError writes {"error": msg} with the status of the error's kind.
// Internal failures are logged with their cause and answered generically
// unless the use case supplied a message of its own.
func RespondError(c *gin.Context, log logrus.FieldLogger, err error) {
	var ue *usecases.Error
	if !errors.As(err, &ue) {
		log.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
		c.JSON(usecases.KindInternal.HTTPStatus(), gin.H{"error": msgInternal})
		return
	}
	if ue.Kind == usecases.KindInternal {
		log.WithError(ue.Err).WithField("path", c.FullPath()).Error(ue.Message)
	}
	c.JSON(ue.Kind.HTTPStatus(), gin.H{"error": ue.Message})
}
