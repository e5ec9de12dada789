package models

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{}, &Initiative{}, &Achievement{}, &ConfigItem{},
		&NavigationConfig{}, &FieldConfiguration{}, &SummarySnapshot{},
	}
}
