package server

import (
	"errors"
	"net/http"

	"github.com/Luismorlan/contentmux/content"
	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/reaction"
	"github.com/Luismorlan/contentmux/series"
	"github.com/gin-gonic/gin"
)

const (
	ErrorBadRequest = "BAD_REQUEST"
	ErrorInternal   = "INTERNAL"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Business errors are reported with their own code, anything else is a 500.
var errorMappings = []errorMapping{
	{reaction.ErrReactionDuplicate, http.StatusConflict, "REACTION_DUPLICATE"},
	{reaction.ErrReactionExceedLimit, http.StatusConflict, "REACTION_EXCEED_LIMIT"},
	{reaction.ErrReactionNotFound, http.StatusNotFound, "REACTION_NOT_FOUND"},
	{reaction.ErrReactionTargetNotExisting, http.StatusBadRequest, "REACTION_TARGET_NOT_EXISTING"},
	{reaction.ErrReactionNotAllowed, http.StatusForbidden, "REACTION_NOT_ALLOWED"},
	{model.ErrCommentNotFound, http.StatusNotFound, "COMMENT_NOT_FOUND"},
	{model.ErrContentNotFound, http.StatusNotFound, "CONTENT_NOT_FOUND"},
	{model.ErrContentAccessDenied, http.StatusForbidden, "CONTENT_ACCESS_DENIED"},
	{content.ErrInvalidStatusTransition, http.StatusBadRequest, "INVALID_STATUS_TRANSITION"},
	{content.ErrSeriesNotFound, http.StatusBadRequest, "SERIES_NOT_FOUND"},
	{series.ErrInvalidSeriesItem, http.StatusBadRequest, "INVALID_SERIES_ITEM"},
}

func statusOf(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrorInternal
}

func abortWithError(c *gin.Context, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		c.Error(err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"code": code, "msg": msg})
}

func abortWithBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": ErrorBadRequest, "msg": err.Error()})
}
