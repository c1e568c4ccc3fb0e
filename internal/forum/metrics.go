package forum

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	topicsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_topics_created_total",
		Help: "Topics created, each with its opening post",
	})

	postsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_posts_created_total",
			Help: "Posts created",
		},
		[]string{"kind"}, // opening | reply
	)

	postsEdited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_posts_edited_total",
		Help: "Posts edited by their authors",
	})

	topicViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_topic_views_total",
		Help: "Topic view counter increments (once per session and topic)",
	})
)
