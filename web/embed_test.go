package web

import (
	"bytes"
	"testing"
	"time"

	"boards/internal/forms"
	"boards/internal/models"
	"boards/internal/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, name string, data map[string]any) string {
	t.Helper()
	r, err := LoadTemplates()
	require.NoError(t, err)
	tmpl, ok := r[name]
	require.True(t, ok, name)

	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, data))
	return buf.String()
}

func TestLoadTemplates(t *testing.T) {
	r, err := LoadTemplates()
	require.NoError(t, err)
	assert.Len(t, r, len(Views))
}

func TestHomeTemplate(t *testing.T) {
	now := time.Now()
	out := render(t, "home.html", map[string]any{
		"Boards": []models.Board{
			{ID: 1, Name: "Django", Description: "This is a board about Django.", TopicCount: 1, PostCount: 2,
				LastPost: &models.Post{TopicID: 5, CreatedAt: now, CreatedBy: models.User{Username: "jane"}}},
			{ID: 2, Name: "Python"},
		},
	})
	assert.Contains(t, out, `href="/boards/1/"`)
	assert.Contains(t, out, `href="/boards/1/topics/5/"`)
	assert.Contains(t, out, "By jane")
	assert.Contains(t, out, "No posts yet.")
	assert.Contains(t, out, `href="/login/"`)
}

func TestTopicsTemplate(t *testing.T) {
	board := &models.Board{ID: 3, Name: "Go"}
	out := render(t, "topics.html", map[string]any{
		"Board":       board,
		"Topics":      []models.Topic{{ID: 9, Subject: "Generics", Replies: 100, Starter: models.User{Username: "john"}}},
		"Page":        pagination.Resolve("2", 45, 20),
		"CurrentUser": &models.User{ID: 1, Username: "john"},
	})
	assert.Contains(t, out, `href="/boards/3/new/"`)
	assert.Contains(t, out, `href="/boards/3/topics/9/?page=6"`)
	assert.Contains(t, out, `href="?page=3"`)
	assert.Contains(t, out, `href="?page=last"`)
	assert.Contains(t, out, "Log out")
}

func TestTopicPostsTemplate(t *testing.T) {
	edited := time.Now()
	topic := &models.Topic{ID: 4, Subject: "Hello", Board: models.Board{ID: 2, Name: "Django"}}
	out := render(t, "topic_posts.html", map[string]any{
		"Topic": topic,
		"Posts": []models.Post{
			{ID: 10, Message: "**first**", CreatedByID: 1, CreatedBy: models.User{Username: "john"}},
			{ID: 11, Message: "second", CreatedByID: 2, CreatedBy: models.User{Username: "jane"}, UpdatedAt: &edited},
		},
		"Page":        pagination.Resolve("", 2, 20),
		"CurrentUser": &models.User{ID: 1, Username: "john"},
	})
	assert.Contains(t, out, `id="10"`)
	assert.Contains(t, out, "<strong>first</strong>")
	assert.Contains(t, out, `href="/boards/2/topics/4/posts/10/edit/"`)
	assert.NotContains(t, out, "/posts/11/edit/")
	assert.Contains(t, out, "(edited)")
	assert.Contains(t, out, `href="/boards/2/topics/4/reply/"`)
}

func TestFormTemplatesShowErrors(t *testing.T) {
	out := render(t, "new_topic.html", map[string]any{
		"Board":     &models.Board{ID: 1, Name: "Django"},
		"Form":      &forms.NewTopicForm{Subject: "kept <b>"},
		"Errors":    forms.FieldErrors{"message": "This field is required."},
		"CSRFToken": "tok-en_=",
	})
	assert.Contains(t, out, `name="csrf_token" value="tok-en_="`)
	assert.Contains(t, out, "This field is required.")
	assert.Contains(t, out, `value="kept &lt;b&gt;"`)
	assert.Contains(t, out, "is-invalid")

	out = render(t, "login.html", map[string]any{
		"Form":   &forms.LoginForm{Username: "john"},
		"Errors": forms.FieldErrors{forms.NonFieldKey: "Please enter a correct username and password."},
		"Next":   "/boards/1/new/",
	})
	assert.Contains(t, out, "Please enter a correct username and password.")
	assert.Contains(t, out, `name="next" value="/boards/1/new/"`)

	out = render(t, "signup.html", map[string]any{
		"Form":    &forms.SignUpForm{},
		"Captcha": "3 + 4",
	})
	assert.Contains(t, out, "What is 3 &#43; 4?")
}

func TestErrorTemplate(t *testing.T) {
	out := render(t, "error.html", map[string]any{"Code": 404, "Error": "Page not found"})
	assert.Contains(t, out, "404")
	assert.Contains(t, out, "Page not found")
}
