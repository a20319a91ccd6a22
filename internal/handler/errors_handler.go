package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/errlog"
)

// ErrorsHandler exposes the error handler's aggregated statistics.
type ErrorsHandler struct {
	errs *errlog.Handler
}

func NewErrorsHandler(errs *errlog.Handler) *ErrorsHandler {
	return &ErrorsHandler{errs: errs}
}

func (h *ErrorsHandler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.errs.Stats())
}
