package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"initiativehub/models"
)

// Admin is the bootstrap account created by Seed when no admin exists yet.
type Admin struct {
	Email        string
	Name         string
	PasswordHash string
}

var defaultConfigItems = []models.ConfigItem{
	{Category: models.CategoryStatus, Value: "not_started", Label: "Not Started", Color: "#9ca3af", SortOrder: 1},
	{Category: models.CategoryStatus, Value: "in_progress", Label: "In Progress", Color: "#3b82f6", SortOrder: 2},
	{Category: models.CategoryStatus, Value: "at_risk", Label: "At Risk", Color: "#f59e0b", SortOrder: 3},
	{Category: models.CategoryStatus, Value: "on_hold", Label: "On Hold", Color: "#6b7280", SortOrder: 4},
	{Category: models.CategoryStatus, Value: "completed", Label: "Completed", Color: "#10b981", SortOrder: 5},
	{Category: models.CategoryPriority, Value: "critical", Label: "Critical", Color: "#dc2626", SortOrder: 1},
	{Category: models.CategoryPriority, Value: "high", Label: "High", Color: "#f97316", SortOrder: 2},
	{Category: models.CategoryPriority, Value: "medium", Label: "Medium", Color: "#eab308", SortOrder: 3},
	{Category: models.CategoryPriority, Value: "low", Label: "Low", Color: "#22c55e", SortOrder: 4},
}

var defaultNavigation = []models.NavigationConfig{
	{Key: "dashboard", Label: "Dashboard", Path: "/", Icon: "layout-dashboard", SortOrder: 1},
	{Key: "initiatives", Label: "Initiatives", Path: "/initiatives", Icon: "target", SortOrder: 2},
	{Key: "calendar", Label: "Calendar", Path: "/calendar", Icon: "calendar", SortOrder: 3},
	{Key: "achievements", Label: "Achievements", Path: "/achievements", Icon: "trophy", SortOrder: 4},
	{Key: "admin", Label: "Admin", Path: "/admin", Icon: "settings", SortOrder: 5, AdminOnly: true},
}

var defaultFields = []models.FieldConfiguration{
	{FieldName: "title", Label: "Title", Required: true, SortOrder: 1},
	{FieldName: "description", Label: "Description", SortOrder: 2},
	{FieldName: "status", Label: "Status", Required: true, SortOrder: 3},
	{FieldName: "priority", Label: "Priority", SortOrder: 4},
	{FieldName: "team", Label: "Team", SortOrder: 5},
	{FieldName: "owner", Label: "Owner", SortOrder: 6},
	{FieldName: "executive_sponsor", Label: "Executive Sponsor", SortOrder: 7},
	{FieldName: "start_date", Label: "Start Date", SortOrder: 8},
	{FieldName: "target_date", Label: "Target Date", SortOrder: 9},
	{FieldName: "progress", Label: "Progress", SortOrder: 10},
	{FieldName: "budget", Label: "Budget", SortOrder: 11},
}

// Seed inserts the default statuses, priorities, navigation entries and field
// configurations that do not exist yet. It is safe to run repeatedly.
func Seed(conn *gorm.DB, admin *Admin) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		for _, item := range defaultConfigItems {
			item.Active = true
			if err := tx.Where(models.ConfigItem{Category: item.Category, Value: item.Value}).
				FirstOrCreate(&item).Error; err != nil {
				return fmt.Errorf("seed config item %s/%s: %w", item.Category, item.Value, err)
			}
		}

		for _, nav := range defaultNavigation {
			nav.Visible = true
			if err := tx.Where(models.NavigationConfig{Key: nav.Key}).FirstOrCreate(&nav).Error; err != nil {
				return fmt.Errorf("seed navigation %s: %w", nav.Key, err)
			}
		}

		for _, field := range defaultFields {
			field.Entity = models.EntityInitiative
			field.Visible = true
			if err := tx.Where(models.FieldConfiguration{Entity: field.Entity, FieldName: field.FieldName}).
				FirstOrCreate(&field).Error; err != nil {
				return fmt.Errorf("seed field %s: %w", field.FieldName, err)
			}
		}

		if admin == nil || admin.Email == "" {
			return nil
		}

		var existing models.User
		err := tx.Where("role = ?", models.RoleAdmin).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check admin existence: %w", err)
		}

		user := models.User{
			Email:        admin.Email,
			Name:         admin.Name,
			Role:         models.RoleAdmin,
			PasswordHash: admin.PasswordHash,
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		return nil
	})
}
