package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/o11ylab/reqsim/app"
	"github.com/o11ylab/reqsim/metrics"
	"github.com/o11ylab/reqsim/utils"
)

// Metrics serves the text exposition snapshot of the metric registry for
// pull-based scrapers
func Metrics(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := deps.Registry.ExportText()
		if err != nil {
			deps.Logger.Error("failed to export metrics", zap.Error(err))
			_ = utils.WriteInternalError(w, "failed to export metrics")
			return
		}

		w.Header().Set("Content-Type", metrics.ExpositionContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
	}
}
