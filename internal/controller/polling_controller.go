// internal/controller/polling_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/instadm-io/instadm-backend/internal/service"
)

// PollingController exposes the comment poller's lifecycle over HTTP.
type PollingController struct {
	Poller *service.Poller
}

func (c *PollingController) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.Poller.Status())
}

// Control accepts {"action": "start" | "stop" | "poll"}. "poll" triggers
// one immediate sweep without touching the schedule.
func (c *PollingController) Control(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch body.Action {
	case "start":
		if err := c.Poller.Start(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	case "stop":
		c.Poller.Stop()
	case "poll":
		go c.Poller.RunOnce()
	default:
		writeError(w, http.StatusBadRequest, "action must be 'start', 'stop' or 'poll'")
		return
	}

	writeJSON(w, http.StatusOK, c.Poller.Status())
}
