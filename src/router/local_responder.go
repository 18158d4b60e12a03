package router

import (
	"fmt"
	"sort"
	"strings"

	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

// LocalModel is reported as the model name for locally synthesized answers.
const LocalModel = "local-responder"

// LocalResponder produces deterministic canned answers from a
// classification. It performs no I/O.
type LocalResponder struct{}

func NewLocalResponder() *LocalResponder {
	return &LocalResponder{}
}

func (l *LocalResponder) Respond(c *models.ClassificationResult) string {
	if c == nil {
		return "I could not understand that request."
	}
	p := c.Parameters

	var out string
	switch c.TaskType {
	case models.TaskFileOperation:
		out = "File operation recognised"
		if target := first(p, "target", "source", "folderName"); target != "" {
			out += " for " + target
		}
		if dest := p["destination"]; dest != "" {
			out += " into " + dest
		}
		out += "."
	case models.TaskSystemQuery:
		out = "System status request recognised; reading it from this device."
	case models.TaskAppControl:
		if app := p["appName"]; app != "" {
			out = fmt.Sprintf("App control request for %s.", app)
		} else {
			out = "App control request recognised, but no application was named."
		}
	case models.TaskCalendar:
		out = "Calendar request recognised"
		if title := p["title"]; title != "" {
			out += ": " + title
		}
		out += when(p) + "."
	case models.TaskEmail:
		out = "Email request recognised"
		if to := first(p, "recipient", "email"); to != "" {
			out += " for " + to
		}
		out += "."
	case models.TaskContacts:
		out = "Contacts request recognised"
		if name := p["name"]; name != "" {
			out += " for " + name
		}
		out += "."
	case models.TaskWebSearch:
		out = "Web search requires a network connection"
		if q := first(p, "query", "subject", "location"); q != "" {
			out += fmt.Sprintf("; saved query %q", q)
		}
		out += "."
	case models.TaskWorkflow:
		out = "Workflow request recognised"
		if wf := p["workflow"]; wf != "" {
			out += ": " + wf
		}
		out += "."
	case models.TaskTextProcessing:
		out = "Text processing request recognised"
		if lang := p["language"]; lang != "" {
			out += " (target language: " + lang + ")"
		}
		out += "."
	case models.TaskGeneralQuestion:
		out = "This question needs the networked model for a full answer."
	default:
		out = "I could not understand that request."
	}

	if extra := remaining(p); extra != "" {
		out += " Parameters: " + extra + "."
	}
	if c.RequiresConfirmation {
		out += " Confirmation required before running this action."
	}
	return out
}

func when(p map[string]string) string {
	var parts []string
	if d := p["date"]; d != "" {
		parts = append(parts, d)
	}
	if t := p["time"]; t != "" {
		parts = append(parts, "at "+t)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, " ") + ")"
}

func first(p map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := p[k]; v != "" {
			return v
		}
	}
	return ""
}

// remaining lists parameters not already woven into the sentence, sorted so
// the output is stable.
func remaining(p map[string]string) string {
	used := map[string]bool{
		"target": true, "source": true, "destination": true, "folderName": true,
		"appName": true, "title": true, "date": true, "time": true,
		"recipient": true, "email": true, "name": true, "query": true,
		"subject": true, "location": true, "workflow": true, "language": true,
	}
	var keys []string
	for k := range p {
		if !used[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + p[k]
	}
	return strings.Join(parts, ", ")
}
