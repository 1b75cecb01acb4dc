package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRow is the single row holding a named JSON document.
type DocumentRow struct {
	Name      string `gorm:"primaryKey;size:128"`
	Content   string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (DocumentRow) TableName() string {
	return "documents"
}

type GormRepository struct {
	db   *gorm.DB
	name string
}

// NewGormRepository migrates the documents table and stores the document under name.
func NewGormRepository(db *gorm.DB, name string) (*GormRepository, error) {
	if err := db.AutoMigrate(&DocumentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &GormRepository{db: db, name: name}, nil
}

func (r *GormRepository) Read(ctx context.Context) ([]byte, error) {
	var row DocumentRow
	err := r.db.WithContext(ctx).Where("name = ?", r.name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Content), nil
}

func (r *GormRepository) Write(ctx context.Context, data []byte) error {
	row := DocumentRow{Name: r.name, Content: string(data), UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(&row).Error
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
