package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Luismorlan/contentmux/content"
	"github.com/Luismorlan/contentmux/model"
	"github.com/Luismorlan/contentmux/reaction"
	"github.com/Luismorlan/contentmux/server/middlewares"
	Logger "github.com/Luismorlan/contentmux/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type ReactionLedger interface {
	CreateReaction(ctx context.Context, actorID string, targetType model.ReactionTargetType, targetID string, reactionName string) (*model.Reaction, error)
	DeleteReaction(ctx context.Context, q reaction.DeleteQuery) (*model.Reaction, error)
}

type ContentService interface {
	Publish(ctx context.Context, actorID string, contentID string) (*model.ContentItem, error)
	Update(ctx context.Context, actorID string, contentID string, in content.UpdateInput) (*model.ContentItem, error)
	Delete(ctx context.Context, actorID string, contentID string) error
	VideoProcessed(ctx context.Context, videoID string, succeeded bool, properties map[string]interface{}) error
}

type SeriesService interface {
	AddItems(ctx context.Context, actorID string, seriesID string, itemIds []string) ([]string, error)
	RemoveItems(ctx context.Context, actorID string, seriesID string, itemIds []string) ([]string, error)
	ReorderItems(ctx context.Context, actorID string, seriesID string, itemIds []string) ([]string, error)
}

type FeedReader interface {
	GroupFeed(ctx context.Context, groupID string, limit int64) ([]string, error)
}

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 500
)

// Handlers serves the mutation endpoints. Each request commits its primary
// mutation and returns; propagation runs through the dispatcher.
type Handlers struct {
	Reactions ReactionLedger
	Contents  ContentService
	Series    SeriesService
	Feeds     FeedReader
}

type createReactionRequest struct {
	TargetType   model.ReactionTargetType `json:"targetType" binding:"required"`
	TargetID     string                   `json:"targetId" binding:"required"`
	ReactionName string                   `json:"reactionName" binding:"required"`
}

type deleteReactionRequest struct {
	TargetType   model.ReactionTargetType `json:"targetType" binding:"required"`
	TargetID     string                   `json:"targetId" binding:"required"`
	ReactionID   string                   `json:"reactionId"`
	ReactionName string                   `json:"reactionName"`
}

type updateContentRequest struct {
	Title             *string              `json:"title"`
	Content           *string              `json:"content"`
	GroupIds          []string             `json:"groupIds"`
	TagIds            []string             `json:"tagIds"`
	SeriesIds         []string             `json:"seriesIds"`
	IsHidden          *bool                `json:"isHidden"`
	ReactionsDisabled *bool                `json:"reactionsDisabled"`
	Status            *model.ContentStatus `json:"status"`
}

type seriesItemsRequest struct {
	ItemIds []string `json:"itemIds" binding:"required"`
}

type videoProcessedRequest struct {
	Succeeded  bool                   `json:"succeeded"`
	Properties map[string]interface{} `json:"properties"`
}

func (h *Handlers) CreateReaction(c *gin.Context) {
	var req createReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBadRequest(c, err)
		return
	}
	r, err := h.Reactions.CreateReaction(c.Request.Context(), middlewares.ActorID(c), req.TargetType, req.TargetID, req.ReactionName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handlers) DeleteReaction(c *gin.Context) {
	var req deleteReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBadRequest(c, err)
		return
	}
	r, err := h.Reactions.DeleteReaction(c.Request.Context(), reaction.DeleteQuery{
		ActorID:      middlewares.ActorID(c),
		TargetType:   req.TargetType,
		TargetID:     req.TargetID,
		ReactionID:   req.ReactionID,
		ReactionName: req.ReactionName,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handlers) PublishContent(c *gin.Context) {
	item, err := h.Contents.Publish(c.Request.Context(), middlewares.ActorID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handlers) UpdateContent(c *gin.Context) {
	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBadRequest(c, err)
		return
	}
	item, err := h.Contents.Update(c.Request.Context(), middlewares.ActorID(c), c.Param("id"), content.UpdateInput{
		Title:             req.Title,
		Content:           req.Content,
		GroupIds:          req.GroupIds,
		TagIds:            req.TagIds,
		SeriesIds:         req.SeriesIds,
		IsHidden:          req.IsHidden,
		ReactionsDisabled: req.ReactionsDisabled,
		Status:            req.Status,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handlers) DeleteContent(c *gin.Context) {
	if err := h.Contents.Delete(c.Request.Context(), middlewares.ActorID(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) VideoProcessed(c *gin.Context) {
	var req videoProcessedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBadRequest(c, err)
		return
	}
	videoID := c.Param("id")
	if err := h.Contents.VideoProcessed(c.Request.Context(), videoID, req.Succeeded, req.Properties); err != nil {
		abortWithError(c, err)
		return
	}
	Logger.Log.WithFields(logrus.Fields{"video": videoID, "actor": middlewares.ActorID(c)}).Info("video processing reported")
	c.Status(http.StatusAccepted)
}

func (h *Handlers) AddSeriesItems(c *gin.Context) {
	h.changeSeriesItems(c, h.Series.AddItems)
}

func (h *Handlers) RemoveSeriesItems(c *gin.Context) {
	h.changeSeriesItems(c, h.Series.RemoveItems)
}

func (h *Handlers) ReorderSeriesItems(c *gin.Context) {
	h.changeSeriesItems(c, h.Series.ReorderItems)
}

func (h *Handlers) changeSeriesItems(c *gin.Context, change func(context.Context, string, string, []string) ([]string, error)) {
	var req seriesItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBadRequest(c, err)
		return
	}
	itemIds, err := change(c.Request.Context(), middlewares.ActorID(c), c.Param("id"), req.ItemIds)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seriesId": c.Param("id"), "itemIds": itemIds})
}

func (h *Handlers) GroupFeed(c *gin.Context) {
	limit := int64(defaultFeedLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			abortWithBadRequest(c, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	ids, err := h.Feeds.GroupFeed(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groupId": c.Param("id"), "contentIds": ids})
}
