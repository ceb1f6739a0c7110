package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Checkpoint is the durable record of pipeline progress used for resumable
// runs. Serialised as JSON with sorted identifier lists.
type Checkpoint struct {
	ProcessedIDs map[string]struct{}
	FailedIDs    map[string]struct{}
	LastUpdated  time.Time
}

// NewCheckpoint returns an empty checkpoint.
func NewCheckpoint() *Checkpoint {
	return &Checkpoint{
		ProcessedIDs: make(map[string]struct{}),
		FailedIDs:    make(map[string]struct{}),
	}
}

// Seen reports whether an id has already been processed or failed.
func (c *Checkpoint) Seen(id string) bool {
	if _, ok := c.ProcessedIDs[id]; ok {
		return true
	}
	_, ok := c.FailedIDs[id]
	return ok
}

// Merge unions a pipeline result into the checkpoint.
func (c *Checkpoint) Merge(result *PipelineResult) {
	for _, p := range result.Successful {
		c.ProcessedIDs[p.DatasetID] = struct{}{}
		delete(c.FailedIDs, p.DatasetID)
	}
	for _, p := range result.Failed {
		if _, ok := c.ProcessedIDs[p.DatasetID]; !ok {
			c.FailedIDs[p.DatasetID] = struct{}{}
		}
	}
	c.LastUpdated = time.Now().UTC()
}

// FilterPending returns the subset of ids not yet recorded, preserving
// input order.
func (c *Checkpoint) FilterPending(ids []string) []string {
	pending := make([]string, 0, len(ids))
	for _, id := range ids {
		if !c.Seen(id) {
			pending = append(pending, id)
		}
	}
	return pending
}

// checkpointJSON is the wire form: sets become sorted lists.
type checkpointJSON struct {
	ProcessedIDs []string  `json:"processed_ids"`
	FailedIDs    []string  `json:"failed_ids"`
	LastUpdated  time.Time `json:"last_updated"`
}

func (c *Checkpoint) MarshalJSON() ([]byte, error) {
	out := checkpointJSON{
		ProcessedIDs: make([]string, 0, len(c.ProcessedIDs)),
		FailedIDs:    make([]string, 0, len(c.FailedIDs)),
		LastUpdated:  c.LastUpdated,
	}
	for id := range c.ProcessedIDs {
		out.ProcessedIDs = append(out.ProcessedIDs, id)
	}
	for id := range c.FailedIDs {
		out.FailedIDs = append(out.FailedIDs, id)
	}
	sort.Strings(out.ProcessedIDs)
	sort.Strings(out.FailedIDs)
	return json.Marshal(out)
}

func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var in checkpointJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.ProcessedIDs = make(map[string]struct{}, len(in.ProcessedIDs))
	for _, id := range in.ProcessedIDs {
		c.ProcessedIDs[id] = struct{}{}
	}
	c.FailedIDs = make(map[string]struct{}, len(in.FailedIDs))
	for _, id := range in.FailedIDs {
		c.FailedIDs[id] = struct{}{}
	}
	c.LastUpdated = in.LastUpdated
	return nil
}
