// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "marvin_moderation_verdicts_total",
	Help: "Moderation gate verdicts by outcome and reason",
}, []string{"outcome", "reason"})

var DeferredTasks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "marvin_deferred_tasks_total",
	Help: "Deferred moderation actions by lifecycle state",
}, []string{"state"})

var PermissionProbes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "marvin_permission_probes_total",
	Help: "Calls to the chat platform to resolve bot privileges, by result",
}, []string{"result"})

var Commands = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "marvin_commands_total",
	Help: "Telegram commands handled, by command and result",
}, []string{"command", "result"})

var RelayedPosts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "marvin_relayed_posts_total",
	Help: "Subreddit posts relayed to Telegram",
})

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
