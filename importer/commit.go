package importer

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"initiativehub/models"
)

// Committed is what Commit wrote.
type Committed struct {
	Initiatives []models.Initiative `json:"initiatives"`
	ConfigItems []models.ConfigItem `json:"config_items"`
}

// Commit writes the planned config items and the parsed initiatives in one
// transaction. Config items that appeared since the parse are reused.
func Commit(ctx context.Context, conn *gorm.DB, res *Result, createdBy *uint) (*Committed, error) {
	out := &Committed{
		Initiatives: res.Initiatives(),
		ConfigItems: []models.ConfigItem{},
	}

	err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range res.NewConfigItems {
			var existing models.ConfigItem
			err := tx.Where("category = ? AND value = ?", item.Category, item.Value).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("look up %s %q: %w", item.Category, item.Value, err)
			}

			created := item
			if err := tx.Create(&created).Error; err != nil {
				return fmt.Errorf("create %s %q: %w", item.Category, item.Value, err)
			}
			out.ConfigItems = append(out.ConfigItems, created)
		}

		for i := range out.Initiatives {
			out.Initiatives[i].CreatedByID = createdBy
		}
		if len(out.Initiatives) > 0 {
			if err := tx.CreateInBatches(&out.Initiatives, 100).Error; err != nil {
				return fmt.Errorf("create initiatives: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
