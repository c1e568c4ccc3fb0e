package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"boards/internal/forms"
	"boards/internal/forum"
	"boards/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// viewerSessionKey holds the random identity that topic views are recorded under.
const viewerSessionKey = "viewer_key"

// viewerKey returns the session's viewer identity, creating it on first use.
// An empty key is returned when the session cannot be saved.
func viewerKey(c *gin.Context) string {
	session := sessions.Default(c)
	if key, ok := session.Get(viewerSessionKey).(string); ok && key != "" {
		return key
	}
	key := uuid.NewString()
	session.Set(viewerSessionKey, key)
	if err := session.Save(); err != nil {
		slog.WarnContext(c.Request.Context(), "save viewer key", "error", err)
		return ""
	}
	return key
}

type TopicHandler struct {
	forum *forum.Service
}

func NewTopicHandler(f *forum.Service) *TopicHandler {
	return &TopicHandler{forum: f}
}

func topicURL(boardID, topicID uint) string {
	return fmt.Sprintf("/boards/%d/topics/%d/", boardID, topicID)
}

func (h *TopicHandler) ShowNew(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	board, err := h.forum.GetBoard(c.Request.Context(), boardID)
	if err != nil {
		handleError(c, err)
		return
	}
	Render(c, http.StatusOK, "new_topic.html", gin.H{
		"Board": board,
		"Form":  &forms.NewTopicForm{},
	})
}

func (h *TopicHandler) Create(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	board, err := h.forum.GetBoard(ctx, boardID)
	if err != nil {
		handleError(c, err)
		return
	}

	var form forms.NewTopicForm
	_ = c.ShouldBind(&form)

	topic, err := h.forum.CreateTopic(ctx, board.ID, middleware.CurrentUser(c), &form)
	var verr *forum.ValidationError
	if errors.As(err, &verr) {
		slog.DebugContext(ctx, "new topic rejected", "board_id", board.ID, "fields", verr.Fields)
		Render(c, http.StatusOK, "new_topic.html", gin.H{
			"Board":  board,
			"Form":   &form,
			"Errors": verr.Fields,
		})
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, topicURL(board.ID, topic.ID))
}

// Posts shows one page of a topic, counting the view once per session.
func (h *TopicHandler) Posts(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	topicID, ok := idParam(c, "topic_id")
	if !ok {
		return
	}

	page, err := h.forum.ListPosts(c.Request.Context(), boardID, topicID, viewerKey(c), c.Query("page"))
	if err != nil {
		handleError(c, err)
		return
	}

	Render(c, http.StatusOK, "topic_posts.html", gin.H{
		"Topic": page.Topic,
		"Posts": page.Posts,
		"Page":  page.Page,
	})
}

func (h *TopicHandler) renderReply(c *gin.Context, boardID, topicID uint, form *forms.PostForm, fe forms.FieldErrors) {
	ctx := c.Request.Context()
	topic, err := h.forum.GetTopic(ctx, boardID, topicID)
	if err != nil {
		handleError(c, err)
		return
	}
	recent, err := h.forum.RecentPosts(ctx, topic)
	if err != nil {
		handleError(c, err)
		return
	}
	Render(c, http.StatusOK, "reply_topic.html", gin.H{
		"Topic":       topic,
		"Form":        form,
		"Errors":      fe,
		"RecentPosts": recent,
	})
}

func (h *TopicHandler) ShowReply(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	topicID, ok := idParam(c, "topic_id")
	if !ok {
		return
	}
	h.renderReply(c, boardID, topicID, &forms.PostForm{}, nil)
}

// Reply appends a post and redirects to the page holding it.
func (h *TopicHandler) Reply(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	topicID, ok := idParam(c, "topic_id")
	if !ok {
		return
	}

	var form forms.PostForm
	_ = c.ShouldBind(&form)

	res, err := h.forum.Reply(c.Request.Context(), boardID, topicID, middleware.CurrentUser(c), &form)
	var verr *forum.ValidationError
	if errors.As(err, &verr) {
		h.renderReply(c, boardID, topicID, &form, verr.Fields)
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s?page=%d#%d", topicURL(boardID, topicID), res.Page, res.Post.ID))
}
