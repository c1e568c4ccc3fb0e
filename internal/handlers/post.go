package handlers

import (
	"errors"
	"net/http"

	"boards/internal/forms"
	"boards/internal/forum"
	"boards/internal/middleware"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	forum *forum.Service
}

func NewPostHandler(f *forum.Service) *PostHandler {
	return &PostHandler{forum: f}
}

type postParams struct {
	boardID, topicID, postID uint
}

func readPostParams(c *gin.Context) (postParams, bool) {
	var p postParams
	var ok bool
	if p.boardID, ok = idParam(c, "id"); !ok {
		return p, false
	}
	if p.topicID, ok = idParam(c, "topic_id"); !ok {
		return p, false
	}
	if p.postID, ok = idParam(c, "post_id"); !ok {
		return p, false
	}
	return p, true
}

// ShowEdit renders the edit form; posts of other users look missing.
func (h *PostHandler) ShowEdit(c *gin.Context) {
	p, ok := readPostParams(c)
	if !ok {
		return
	}
	post, err := h.forum.GetEditablePost(c.Request.Context(), p.boardID, p.topicID, p.postID, middleware.CurrentUser(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Render(c, http.StatusOK, "edit_post.html", gin.H{
		"Post": post,
		"Form": &forms.PostForm{Message: post.Message},
	})
}

func (h *PostHandler) Update(c *gin.Context) {
	p, ok := readPostParams(c)
	if !ok {
		return
	}

	var form forms.PostForm
	_ = c.ShouldBind(&form)

	post, err := h.forum.EditPost(c.Request.Context(), p.boardID, p.topicID, p.postID, middleware.CurrentUser(c), &form)
	var verr *forum.ValidationError
	if errors.As(err, &verr) {
		Render(c, http.StatusOK, "edit_post.html", gin.H{
			"Post":   post,
			"Form":   &form,
			"Errors": verr.Fields,
		})
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, topicURL(p.boardID, p.topicID))
}
