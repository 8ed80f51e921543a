package model

import (
	"strings"
	"time"
)

// Agent connection states.
const (
	AgentConnected    = "connected"
	AgentDisconnected = "disconnected"
	AgentLost         = "lost"
	AgentStopped      = "stopped"
)

type Agent struct {
	ID                string     `json:"id"`
	URL               string     `json:"url"`
	WebURL            string     `json:"web_url"`
	Name              string     `json:"name"`
	ConnectionState   string     `json:"connection_state"`
	Hostname          string     `json:"hostname"`
	IPAddress         string     `json:"ip_address"`
	UserAgent         string     `json:"user_agent"`
	Version           string     `json:"version"`
	MetaData          []string   `json:"meta_data"`
	Job               *Job       `json:"job,omitempty"`
	LastJobFinishedAt *time.Time `json:"last_job_finished_at"`
	CreatedAt         *time.Time `json:"created_at"`
}

func (a Agent) Connected() bool {
	return a.ConnectionState == AgentConnected
}

// Busy reports whether the agent is running a job.
func (a Agent) Busy() bool {
	return a.Job != nil
}

// Queue returns the agent's queue tag, "default" when untagged.
func (a Agent) Queue() string {
	for _, tag := range a.MetaData {
		if v, ok := strings.CutPrefix(tag, "queue="); ok {
			return v
		}
	}
	return "default"
}
