package handlers

import (
	"net/http"
	"time"

	"github.com/o11ylab/reqsim/app"
	"github.com/o11ylab/reqsim/simulation"
	"github.com/o11ylab/reqsim/utils"
)

// Response messages for the simulated endpoints
const (
	normalMessage = "This is a normal API response"
	fastMessage   = "This is an abnormal API response"
	slowMessage   = "This is a slow API response"
	errorMessage  = "simulated internal server error"
)

// Normal handles the deterministic endpoint: always an immediate success
func Normal(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteMessage(w, normalMessage)
	}
}

// Abnormal handles the randomized endpoint. One strategy draw per request
// selects a fast success, a simulated server error, or a success delayed by
// the configured amount. The delay suspends only this request; concurrent
// requests proceed normally.
func Abnormal(deps *app.Dependencies) http.HandlerFunc {
	delay := deps.Config.Simulation.SlowDelay

	return func(w http.ResponseWriter, r *http.Request) {
		switch deps.Strategy.Next() {
		case simulation.OutcomeError:
			_ = utils.WriteInternalError(w, errorMessage)
		case simulation.OutcomeSlow:
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				// client went away; nothing left to send
				return
			}
			_ = utils.WriteMessage(w, slowMessage)
		default:
			_ = utils.WriteMessage(w, fastMessage)
		}
	}
}
