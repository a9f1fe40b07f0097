package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/pkg/activity"
	"nomorewaste/pkg/ledger"
)

type (
	// FridgeResolver finds the household a member belongs to.
	FridgeResolver interface {
		FridgeIDFor(ctx context.Context, userID string) (string, error)
	}

	InventoryService interface {
		GetInventory(ctx context.Context, userID string) (domain.InventoryResponse, error)
		GetStats(ctx context.Context, userID string) (domain.StatsResponse, error)
		AddItems(ctx context.Context, req domain.AddItemsRequest, userID, email string) (domain.AddItemsResponse, error)
		UpdateItem(ctx context.Context, id string, req domain.UpdateItemRequest, userID, email string) (entities.Item, error)
		DeleteItem(ctx context.Context, id string, userID, email string) error
		Split(ctx context.Context, id string, d ledger.Disposition, req domain.SplitRequest, userID, email string) (domain.SplitResponse, error)
		UpdateLog(ctx context.Context, d ledger.Disposition, id string, req domain.UpdateLogRequest, userID, email string) (entities.LogEntry, error)
		DeleteLog(ctx context.Context, d ledger.Disposition, id string, userID, email string) error
	}

	inventoryService struct {
		inventoryRepository InventoryRepository
		activityRepository  activity.ActivityRepository
		members             FridgeResolver
		publisher           activity.Publisher
		now                 func() time.Time
	}
)

func NewInventoryService(inventoryRepository InventoryRepository, activityRepository activity.ActivityRepository, members FridgeResolver, publisher activity.Publisher) InventoryService {
	return &inventoryService{
		inventoryRepository: inventoryRepository,
		activityRepository:  activityRepository,
		members:             members,
		publisher:           publisher,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

func (s *inventoryService) GetInventory(ctx context.Context, userID string) (domain.InventoryResponse, error) {
	fridgeID, err := s.members.FridgeIDFor(ctx, userID)
	if err != nil {
		return domain.InventoryResponse{}, err
	}

	items, err := s.inventoryRepository.GetItems(ctx, fridgeID)
	if err != nil {
		return domain.InventoryResponse{}, err
	}
	waste, err := s.inventoryRepository.GetWasteLogs(ctx, fridgeID)
	if err != nil {
		return domain.InventoryResponse{}, err
	}
	consumed, err := s.inventoryRepository.GetConsumedLogs(ctx, fridgeID)
	if err != nil {
		return domain.InventoryResponse{}, err
	}
	logs, err := s.activityRepository.GetActivity(ctx, fridgeID, activity.DefaultLimit)
	if err != nil {
		return domain.InventoryResponse{}, err
	}

	return domain.InventoryResponse{
		Items:    nonNil(items),
		Waste:    nonNil(waste),
		Consumed: nonNil(consumed),
		Activity: nonNil(logs),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *inventoryService) GetStats(ctx context.Context, userID string) (domain.StatsResponse, error) {
	inv, err := s.GetInventory(ctx, userID)
	if err != nil {
		return domain.StatsResponse{}, err
	}
	return ComputeStats(inv, s.now()), nil
}

func newItem(fridgeID string, req domain.NewItemRequest, at time.Time) entities.Item {
	category := domain.NormalizeCategory(req.Category)
	emoji := strings.TrimSpace(req.Emoji)
	if emoji == "" {
		emoji = domain.CategoryEmoji(category)
	}
	return entities.Item{
		FridgeID:  fridgeID,
		Name:      strings.TrimSpace(req.Name),
		Category:  category,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Expiry:    req.Expiry,
		Emoji:     emoji,
		CreatedAt: at,
	}
}

// AddItems inserts the batch and one activity entry naming its size.
func (s *inventoryService) AddItems(ctx context.Context, req domain.AddItemsRequest, userID, email string) (domain.AddItemsResponse, error) {
	if len(req.Items) == 0 {
		return domain.AddItemsResponse{}, domain.ErrNoItems
	}
	fridgeID, err := s.members.FridgeIDFor(ctx, userID)
	if err != nil {
		return domain.AddItemsResponse{}, err
	}

	now := s.now()
	items := make([]entities.Item, 0, len(req.Items))
	for i, r := range req.Items {
		if r.Quantity < 1 {
			return domain.AddItemsResponse{}, fmt.Errorf("item %d: %w", i, domain.ErrAmountOutOfRange)
		}
		items = append(items, newItem(fridgeID, r, now))
	}

	subject := items[0].Name
	if len(items) > 1 {
		subject = fmt.Sprintf("%d items", len(items))
	}
	entry := activity.NewEntry(fridgeID, email, entities.ActionAdd, subject, fmt.Sprintf("Added %d items", len(items)))

	err = s.inventoryRepository.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.inventoryRepository.WithTx(tx).CreateItems(ctx, items); err != nil {
			return err
		}
		return s.activityRepository.WithTx(tx).AppendActivity(ctx, entry)
	})
	if err != nil {
		return domain.AddItemsResponse{}, err
	}

	var batch activity.Batch
	for _, item := range items {
		batch.Add(domain.EventInsert, domain.TableItems, fridgeID, item, nil)
	}
	batch.Activity(entry)
	batch.Flush(s.publisher)

	return domain.AddItemsResponse{Items: items}, nil
}

// UpdateItem overwrites every editable field. Concurrent edits are last-writer-wins.
func (s *inventoryService) UpdateItem(ctx context.Context, id string, req domain.UpdateItemRequest, userID, email string) (entities.Item, error) {
	fridgeID, err := s.members.FridgeIDFor(ctx, userID)
	if err != nil {
		return entities.Item{}, err
	}
	if req.Quantity < 1 {
		return entities.Item{}, domain.ErrAmountOutOfRange
	}

	var updated entities.Item
	var entry *entities.ActivityLog
	err = s.inventoryRepository.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.inventoryRepository.WithTx(tx)
		item, err := repo.GetItemForUpdate(ctx, fridgeID, id)
		if err != nil {
			return err
		}
		item.Name = strings.TrimSpace(req.Name)
		item.Price = req.Price
		item.Quantity = req.Quantity
		item.Category = domain.NormalizeCategory(req.Category)
		item.Expiry = req.Expiry
		if emoji := strings.TrimSpace(req.Emoji); emoji != "" {
			item.Emoji = emoji
		}
		if err := repo.SaveItem(ctx, item); err != nil {
			return err
		}
		updated = *item
		entry = activity.NewEntry(fridgeID, email, entities.ActionEdit, item.Name, "Edited item")
		return s.activityRepository.WithTx(tx).AppendActivity(ctx, entry)
	})
	if err != nil {
		return entities.Item{}, err
	}

	var batch activity.Batch
	batch.Add(domain.EventUpdate, domain.TableItems, fridgeID, updated, nil)
	batch.Activity(entry)
	batch.Flush(s.publisher)
	return updated, nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, id string, userID, email string) error {
	fridgeID, err := s.members.FridgeIDFor(ctx, userID)
	if err != nil {
		return err
	}

	var removed entities.Item
	var entry *entities.ActivityLog
	err = s.inventoryRepository.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.inventoryRepository.WithTx(tx)
		item, err := repo.GetItemForUpdate(ctx, fridgeID, id)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, fridgeID, id); err != nil {
			return err
		}
		removed = *item
		entry = activity.NewEntry(fridgeID, email, entities.ActionDelete, item.Name, "Removed item")
		return s.activityRepository.WithTx(tx).AppendActivity(ctx, entry)
	})
	if err != nil {
		return err
	}

	var batch activity.Batch
	batch.Add(domain.EventDelete, domain.TableItems, fridgeID, nil, domain.RowKey{ID: removed.ID})
	batch.Activity(entry)
	batch.Flush(s.publisher)
	return nil
}

// Split consumes or wastes part of an item. The row is locked for the whole transaction,
// so the history entry never exceeds the quantity present when the split ran.
func (s *inventoryService) Split(ctx context.Context, id string, d ledger.Disposition, req domain.SplitRequest, userID, email string) (domain.SplitResponse, error) {
	fridgeID, err := s.members.FridgeIDFor(ctx, userID)
	if err != nil {
		return domain.SplitResponse{}, err
	}

	var (
		out      ledger.Outcome
		res      domain.SplitResponse
		entry    *entities.ActivityLog
		logTable string
		logRow   any
	)
	err = s.inventoryRepository.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.inventoryRepository.WithTx(tx)
		item, err := repo.GetItemForUpdate(ctx, fridgeID, id)
		if err != nil {
			return err
		}
		out, err = ledger.Remove(*item, req.Amount, d)
		if err != nil {
			return err
		}

		if out.Removed {
			err = repo.DeleteItem(ctx, fridgeID, id)
		} else {
			err = repo.SaveItem(ctx, &out.Item)
			res.Item = &out.Item
		}
		if err != nil {
			return err
		}
		res.Removed = out.Removed

		at := s.now()
		action, verb := entities.ActionConsume, "Consumed"
		switch d {
		case ledger.Wasted:
			action, verb = entities.ActionWaste, "Wasted"
			w := out.WasteLog("", at)
			if err := repo.CreateWasteLog(ctx, &w); err != nil {
				return err
			}
			res.Waste, logTable, logRow = &w, domain.TableWasteLogs, w
		case ledger.Consumed:
			c := out.ConsumedLog("", at)
			if err := repo.CreateConsumedLog(ctx, &c); err != nil {
				return err
			}
			res.Consumed, logTable, logRow = &c, domain.TableConsumedLogs, c
		}

		entry = activity.NewEntry(fridgeID, email, action, item.Name, fmt.Sprintf("%s %d of %d", verb, out.Entry.Quantity, item.Quantity))
		return s.activityRepository.WithTx(tx).AppendActivity(ctx, entry)
	})
	if err != nil {
		return domain.SplitResponse{}, err
	}

	var batch activity.Batch
	if out.Removed {
		batch.Add(domain.EventDelete, domain.TableItems, fridgeID, nil, domain.RowKey{ID: out.Item.ID})
	} else {
		batch.Add(domain.EventUpdate, domain.TableItems, fridgeID, out.Item, nil)
	}
	batch.Add(domain.EventInsert, logTable, fridgeID, logRow, nil)
	batch.Activity(entry)
	batch.Flush(s.publisher)

	log.Debugf("inventory: %s %s %d of %s, %d left", email, d, out.Entry.Quantity, id, out.Remaining())
	return res, nil
}

func (s *inventoryService) UpdateLog(ctx context.Context, d ledger.Disposition, id string, req domain.UpdateLogRequest, userID, email string) (entities.LogEntry, error) {
	fridgeID, err := s.members.FridgeIDFor(ctx, userID)
	if err != nil {
		return entities.LogEntry{}, err
	}
	if req.Quantity < 1 {
		return entities.LogEntry{}, domain.ErrAmountOutOfRange
	}

	apply := func(e *entities.LogEntry) {
		e.Name = strings.TrimSpace(req.Name)
		e.Price = req.Price
		e.Quantity = req.Quantity
		e.Category = domain.NormalizeCategory(req.Category)
	}

	var (
		updated entities.LogEntry
		row     any
		table   string
		entry   *entities.ActivityLog
	)
	err = s.inventoryRepository.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.inventoryRepository.WithTx(tx)
		switch d {
		case ledger.Wasted:
			w, err := repo.GetWasteLogByID(ctx, fridgeID, id)
			if err != nil {
				return err
			}
			apply(&w.LogEntry)
			if err := repo.SaveWasteLog(ctx, w); err != nil {
				return err
			}
			updated, row, table = w.LogEntry, *w, domain.TableWasteLogs
		case ledger.Consumed:
			c, err := repo.GetConsumedLogByID(ctx, fridgeID, id)
			if err != nil {
				return err
			}
			apply(&c.LogEntry)
			if err := repo.SaveConsumedLog(ctx, c); err != nil {
				return err
			}
			updated, row, table = c.LogEntry, *c, domain.TableConsumedLogs
		default:
			return domain.ErrInvalidDisposition
		}
		entry = activity.NewEntry(fridgeID, email, entities.ActionEditHistory, updated.Name, fmt.Sprintf("Corrected %s entry", d))
		return s.activityRepository.WithTx(tx).AppendActivity(ctx, entry)
	})
	if err != nil {
		return entities.LogEntry{}, err
	}

	var batch activity.Batch
	batch.Add(domain.EventUpdate, table, fridgeID, row, nil)
	batch.Activity(entry)
	batch.Flush(s.publisher)
	return updated, nil
}

func (s *inventoryService) DeleteLog(ctx context.Context, d ledger.Disposition, id string, userID, email string) error {
	fridgeID, err := s.members.FridgeIDFor(ctx, userID)
	if err != nil {
		return err
	}

	var (
		table string
		entry *entities.ActivityLog
	)
	err = s.inventoryRepository.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.inventoryRepository.WithTx(tx)
		var name string
		switch d {
		case ledger.Wasted:
			w, err := repo.GetWasteLogByID(ctx, fridgeID, id)
			if err != nil {
				return err
			}
			if err := repo.DeleteWasteLog(ctx, fridgeID, id); err != nil {
				return err
			}
			name, table = w.Name, domain.TableWasteLogs
		case ledger.Consumed:
			c, err := repo.GetConsumedLogByID(ctx, fridgeID, id)
			if err != nil {
				return err
			}
			if err := repo.DeleteConsumedLog(ctx, fridgeID, id); err != nil {
				return err
			}
			name, table = c.Name, domain.TableConsumedLogs
		default:
			return domain.ErrInvalidDisposition
		}
		entry = activity.NewEntry(fridgeID, email, entities.ActionDeleteHistory, name, fmt.Sprintf("Removed %s entry", d))
		return s.activityRepository.WithTx(tx).AppendActivity(ctx, entry)
	})
	if err != nil {
		return err
	}

	var batch activity.Batch
	batch.Add(domain.EventDelete, table, fridgeID, nil, domain.RowKey{ID: id})
	batch.Activity(entry)
	batch.Flush(s.publisher)
	return nil
}
