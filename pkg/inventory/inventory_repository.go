package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nomorewaste/domain"
	"nomorewaste/entities"
)

type (
	InventoryRepository interface {
		WithTx(tx *gorm.DB) InventoryRepository
		Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

		GetItems(ctx context.Context, fridgeID string) ([]entities.Item, error)
		GetItemByID(ctx context.Context, fridgeID, id string) (*entities.Item, error)
		// GetItemForUpdate locks the row until the surrounding transaction ends.
		GetItemForUpdate(ctx context.Context, fridgeID, id string) (*entities.Item, error)
		CreateItems(ctx context.Context, items []entities.Item) error
		SaveItem(ctx context.Context, item *entities.Item) error
		DeleteItem(ctx context.Context, fridgeID, id string) error

		GetWasteLogs(ctx context.Context, fridgeID string) ([]entities.WasteLog, error)
		GetWasteLogByID(ctx context.Context, fridgeID, id string) (*entities.WasteLog, error)
		CreateWasteLog(ctx context.Context, entry *entities.WasteLog) error
		SaveWasteLog(ctx context.Context, entry *entities.WasteLog) error
		DeleteWasteLog(ctx context.Context, fridgeID, id string) error

		GetConsumedLogs(ctx context.Context, fridgeID string) ([]entities.ConsumedLog, error)
		GetConsumedLogByID(ctx context.Context, fridgeID, id string) (*entities.ConsumedLog, error)
		CreateConsumedLog(ctx context.Context, entry *entities.ConsumedLog) error
		SaveConsumedLog(ctx context.Context, entry *entities.ConsumedLog) error
		DeleteConsumedLog(ctx context.Context, fridgeID, id string) error
	}

	inventoryRepository struct {
		db *gorm.DB
	}
)

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) WithTx(tx *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: tx}
}

func (r *inventoryRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *inventoryRepository) GetItems(ctx context.Context, fridgeID string) ([]entities.Item, error) {
	var items []entities.Item
	if err := r.db.WithContext(ctx).
		Where("fridge_id = ?", fridgeID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *inventoryRepository) GetItemByID(ctx context.Context, fridgeID, id string) (*entities.Item, error) {
	var item entities.Item
	if err := r.db.WithContext(ctx).
		Where("fridge_id = ? AND id = ?", fridgeID, id).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) GetItemForUpdate(ctx context.Context, fridgeID, id string) (*entities.Item, error) {
	db := r.db.WithContext(ctx)
	// SQLite has no row locks; its writer lock already serializes the transaction
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item entities.Item
	if err := db.Where("fridge_id = ? AND id = ?", fridgeID, id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) CreateItems(ctx context.Context, items []entities.Item) error {
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *inventoryRepository) SaveItem(ctx context.Context, item *entities.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *inventoryRepository) DeleteItem(ctx context.Context, fridgeID, id string) error {
	res := r.db.WithContext(ctx).Where("fridge_id = ? AND id = ?", fridgeID, id).Delete(&entities.Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *inventoryRepository) GetWasteLogs(ctx context.Context, fridgeID string) ([]entities.WasteLog, error) {
	var logs []entities.WasteLog
	if err := r.db.WithContext(ctx).
		Where("fridge_id = ?", fridgeID).
		Order("wasted_at DESC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *inventoryRepository) GetWasteLogByID(ctx context.Context, fridgeID, id string) (*entities.WasteLog, error) {
	var entry entities.WasteLog
	if err := r.db.WithContext(ctx).Where("fridge_id = ? AND id = ?", fridgeID, id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLogNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *inventoryRepository) CreateWasteLog(ctx context.Context, entry *entities.WasteLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *inventoryRepository) SaveWasteLog(ctx context.Context, entry *entities.WasteLog) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *inventoryRepository) DeleteWasteLog(ctx context.Context, fridgeID, id string) error {
	res := r.db.WithContext(ctx).Where("fridge_id = ? AND id = ?", fridgeID, id).Delete(&entities.WasteLog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrLogNotFound
	}
	return nil
}

func (r *inventoryRepository) GetConsumedLogs(ctx context.Context, fridgeID string) ([]entities.ConsumedLog, error) {
	var logs []entities.ConsumedLog
	if err := r.db.WithContext(ctx).
		Where("fridge_id = ?", fridgeID).
		Order("consumed_at DESC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *inventoryRepository) GetConsumedLogByID(ctx context.Context, fridgeID, id string) (*entities.ConsumedLog, error) {
	var entry entities.ConsumedLog
	if err := r.db.WithContext(ctx).Where("fridge_id = ? AND id = ?", fridgeID, id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLogNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *inventoryRepository) CreateConsumedLog(ctx context.Context, entry *entities.ConsumedLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *inventoryRepository) SaveConsumedLog(ctx context.Context, entry *entities.ConsumedLog) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *inventoryRepository) DeleteConsumedLog(ctx context.Context, fridgeID, id string) error {
	res := r.db.WithContext(ctx).Where("fridge_id = ? AND id = ?", fridgeID, id).Delete(&entities.ConsumedLog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrLogNotFound
	}
	return nil
}
