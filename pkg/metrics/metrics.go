package metrics

import (
	"io"

	vm "github.com/VictoriaMetrics/metrics"
)

var (
	ImageViews      = vm.NewCounter("bookmarks_image_views_total")
	ActionsRecorded = vm.NewCounter("bookmarks_actions_recorded_total")
	EventsProcessed = vm.NewCounter("bookmarks_events_processed_total")
	EventsFailed    = vm.NewCounter("bookmarks_events_failed_total")
)

// FeedRequest counts a dashboard build; mode is "followees" or "global".
func FeedRequest(mode string) {
	vm.GetOrCreateCounter(`bookmarks_feed_requests_total{mode="` + mode + `"}`).Inc()
}

func WritePrometheus(w io.Writer) {
	vm.WritePrometheus(w, true)
}
