package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/kursadbilgin/bulk-submission-engine/internal/repository"
)

func createBatchColumnsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_batch_columns",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ColumnModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_batch_columns_batch ON batch_columns (account_id, batch_id, position)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ColumnModel{})
		},
	}
}
