package config

import (
	"fmt"
	"strings"

	"qscope/pkg/models"
)

// QueueURL builds the SQS URL for a queue name in the configured account.
func (c AWSConfig) QueueURL(queueName string) string {
	return fmt.Sprintf("https://sqs.%s.amazonaws.com/%s/%s", c.Region, c.AccountID, queueName)
}

func (c *Config) describe(queues []QueueConfig) []models.QueueDescriptor {
	out := make([]models.QueueDescriptor, 0, len(queues))
	for _, q := range queues {
		endpoint := q.URL
		if endpoint == "" {
			if q.QueueName == "" {
				continue
			}
			endpoint = c.AWS.QueueURL(q.QueueName)
		}
		out = append(out, models.QueueDescriptor{Name: q.Name, Endpoint: endpoint})
	}
	return out
}

func (c *Config) DLQs() []models.QueueDescriptor {
	return c.describe(c.Queues.DLQ)
}

func (c *Config) MainQueues() []models.QueueDescriptor {
	return c.describe(c.Queues.Main)
}

// AllQueues lists DLQs first, then main queues.
func (c *Config) AllQueues() []models.QueueDescriptor {
	return append(c.DLQs(), c.MainQueues()...)
}

// ResolveQueue maps a friendly name or a full URL to a descriptor. URLs pass
// through unchanged; names match case-insensitively, DLQs before main queues.
func (c *Config) ResolveQueue(nameOrURL string) (models.QueueDescriptor, bool) {
	ref := strings.TrimSpace(nameOrURL)
	if strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return models.QueueDescriptor{Name: queueNameFromURL(ref), Endpoint: ref}, true
	}

	for _, q := range c.AllQueues() {
		if strings.EqualFold(q.Name, ref) {
			return q, true
		}
	}
	return models.QueueDescriptor{}, false
}

// SelectDLQs keeps configured DLQs whose names appear in names, in
// configuration order. An empty names list selects every DLQ. Unknown names
// are returned separately.
func (c *Config) SelectDLQs(names []string) ([]models.QueueDescriptor, []string) {
	dlqs := c.DLQs()
	if len(names) == 0 {
		return dlqs, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = true
	}

	selected := make([]models.QueueDescriptor, 0, len(names))
	for _, q := range dlqs {
		key := strings.ToLower(q.Name)
		if wanted[key] {
			selected = append(selected, q)
			delete(wanted, key)
		}
	}

	var unknown []string
	for _, n := range names {
		if wanted[strings.ToLower(strings.TrimSpace(n))] {
			unknown = append(unknown, n)
		}
	}
	return selected, unknown
}

// FunctionNames merges default and additional function names, dropping
// duplicates while keeping first-seen order.
func (c *Config) FunctionNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range append(append([]string{}, c.Functions.Default...), c.Functions.Additional...) {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names
}

func queueNameFromURL(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
