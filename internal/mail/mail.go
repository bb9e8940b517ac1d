// Package mail defines the immutable email input and the closed category
// set the classification oracle assigns.
package mail

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Email is a single triage input. Never mutated.
type Email struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// IsNoReply reports whether the sender address carries a no-reply marker.
func (e Email) IsNoReply() bool {
	sender := strings.ToLower(e.Sender)
	return strings.Contains(sender, "no-reply") || strings.Contains(sender, "noreply")
}

// Load reads an emails JSON array and returns it sorted ascending by
// timestamp, the order the run driver processes them in.
func Load(path string) ([]Email, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read emails %s: %w", path, err)
	}
	var emails []Email
	if err := json.Unmarshal(data, &emails); err != nil {
		return nil, fmt.Errorf("decode emails %s: %w", path, err)
	}
	sort.SliceStable(emails, func(i, j int) bool {
		return emails[i].Timestamp < emails[j].Timestamp
	})
	return emails, nil
}
