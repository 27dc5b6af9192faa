package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/kursadbilgin/bulk-submission-engine/internal/repository"
)

func createBatchRowsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_batch_rows",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.RowModel{}, &repository.RowEwcCodeModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_batch_rows_batch_row_number ON batch_rows (batch_id, row_number)`,
				`CREATE INDEX IF NOT EXISTS idx_batch_rows_listing ON batch_rows (account_id, batch_id, submitted, created_at DESC, row_number DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_batch_rows_waste_movement_id ON batch_rows (waste_movement_id) WHERE waste_movement_id IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_batch_row_ewc_codes_lookup ON batch_row_ewc_codes (batch_id, ewc_code)`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.RowEwcCodeModel{}, &repository.RowModel{})
		},
	}
}
