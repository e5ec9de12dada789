package importer

import (
	"strings"

	"initiativehub/models"
)

var statusAliases = map[string]string{
	"wip":         "in_progress",
	"ongoing":     "in_progress",
	"active":      "in_progress",
	"started":     "in_progress",
	"in_progress": "in_progress",
	"done":        "completed",
	"complete":    "completed",
	"completed":   "completed",
	"finished":    "completed",
	"on_hold":     "on_hold",
	"hold":        "on_hold",
	"paused":      "on_hold",
	"planned":     "not_started",
	"not_started": "not_started",
	"todo":        "not_started",
	"to_do":       "not_started",
	"backlog":     "not_started",
	"new":         "not_started",
	"blocked":     "at_risk",
	"at_risk":     "at_risk",
	"risk":        "at_risk",
}

var priorityAliases = map[string]string{
	"p0":       "critical",
	"urgent":   "critical",
	"critical": "critical",
	"highest":  "critical",
	"p1":       "high",
	"high":     "high",
	"p2":       "medium",
	"med":      "medium",
	"medium":   "medium",
	"normal":   "medium",
	"p3":       "low",
	"low":      "low",
	"lowest":   "low",
}

var categoryDefaults = map[string]string{
	models.CategoryStatus:   models.DefaultStatus,
	models.CategoryPriority: models.DefaultPriority,
	models.CategoryTeam:     "",
}

// configMapper resolves free-text cells to config values of one import and
// plans the config items that are missing.
type configMapper struct {
	values        map[string]map[string]bool   // category -> value
	labels        map[string]map[string]string // category -> lower label -> value
	nextSortOrder map[string]int
	createMissing bool

	planned []models.ConfigItem
	missing map[string][]string
}

func newConfigMapper(existing []models.ConfigItem, createMissing bool) *configMapper {
	m := &configMapper{
		values:        map[string]map[string]bool{},
		labels:        map[string]map[string]string{},
		nextSortOrder: map[string]int{},
		createMissing: createMissing,
		missing:       map[string][]string{},
	}
	for _, item := range existing {
		m.add(item)
		if item.SortOrder >= m.nextSortOrder[item.Category] {
			m.nextSortOrder[item.Category] = item.SortOrder + 1
		}
	}
	return m
}

func (m *configMapper) add(item models.ConfigItem) {
	if m.values[item.Category] == nil {
		m.values[item.Category] = map[string]bool{}
		m.labels[item.Category] = map[string]string{}
	}
	m.values[item.Category][item.Value] = true
	if item.Label != "" {
		m.labels[item.Category][strings.ToLower(strings.TrimSpace(item.Label))] = item.Value
	}
}

// resolve maps raw to a config value of category. ok is false when the value
// is unknown and no config item was planned for it; value is then the
// category default. A known alias is planned under its canonical value.
func (m *configMapper) resolve(category, raw string) (value string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return categoryDefaults[category], true
	}

	slug := Slug(raw)
	target := slug
	if alias, found := aliasesFor(category)[slug]; found {
		target = alias
	}
	if m.values[category][target] {
		return target, true
	}
	if m.values[category][slug] {
		return slug, true
	}
	if v, found := m.labels[category][strings.ToLower(raw)]; found {
		return v, true
	}

	if !m.seenMissing(category, raw) {
		m.missing[category] = append(m.missing[category], raw)
	}
	if !m.createMissing || target == "" {
		return categoryDefaults[category], false
	}

	label := raw
	if target != slug {
		label = labelFor(target)
	}
	item := models.ConfigItem{
		Category:  category,
		Value:     target,
		Label:     label,
		SortOrder: m.nextSortOrder[category],
		Active:    true,
	}
	m.nextSortOrder[category]++
	m.planned = append(m.planned, item)
	m.add(item)
	return target, true
}

// checkpoint and rollback undo the items planned for a row that is skipped.
func (m *configMapper) checkpoint() int {
	return len(m.planned)
}

func (m *configMapper) rollback(mark int) {
	for _, item := range m.planned[mark:] {
		delete(m.values[item.Category], item.Value)
		delete(m.labels[item.Category], strings.ToLower(item.Label))
		m.nextSortOrder[item.Category]--
	}
	m.planned = m.planned[:mark]
}

// labelFor turns a config value such as in_progress into "In Progress".
func labelFor(value string) string {
	words := strings.Split(value, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (m *configMapper) seenMissing(category, raw string) bool {
	for _, r := range m.missing[category] {
		if strings.EqualFold(r, raw) {
			return true
		}
	}
	return false
}

func aliasesFor(category string) map[string]string {
	switch category {
	case models.CategoryStatus:
		return statusAliases
	case models.CategoryPriority:
		return priorityAliases
	}
	return nil
}
