// Package featureflags evaluates the FEATURE_FLAGS rollout list.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Known flags.
const (
	AttachmentPreviews = "attachment_previews"
	Realtime           = "realtime"
)

// rule is one parsed flag: fully on, fully off, or a percentage of users.
type rule struct {
	raw     string
	percent int
}

// Manager evaluates flags declared as "name=on,other=off,canary=25%".
type Manager struct {
	rules map[string]rule
}

// NewManager parses raw. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		if r, ok := parseRule(value); ok {
			rules[name] = r
		}
	}
	return &Manager{rules: rules}
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, percent: 100}, true
	case "off", "false", "0":
		return rule{raw: value, percent: 0}, true
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if !strings.HasSuffix(value, "%") || err != nil {
		return rule{}, false
	}
	return rule{raw: value, percent: min(max(pct, 0), 100)}, true
}

// Enabled reports whether name is on for userID. Percentage rollouts are
// deterministic per user and never include the anonymous user 0.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	switch {
	case !ok || r.percent <= 0:
		return false
	case r.percent >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < r.percent
}

// EnabledGlobally reports whether name is switched on for everyone.
func (m *Manager) EnabledGlobally(name string) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	return ok && r.percent >= 100
}

// Names lists the configured flags in name order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.rules))
	for name := range m.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Raw returns the configured value of every flag.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for name, r := range m.rules {
		out[name] = r.raw
	}
	return out
}

// Snapshot evaluates every flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
