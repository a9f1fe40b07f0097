package activity

import (
	"time"

	"github.com/gofiber/fiber/v2/log"

	"nomorewaste/domain"
	"nomorewaste/entities"
)

// Publisher fans a committed change out to the household's feed.
type Publisher interface {
	Publish(ev domain.ChangeEvent)
}

type PublisherFunc func(ev domain.ChangeEvent)

func (f PublisherFunc) Publish(ev domain.ChangeEvent) { f(ev) }

// NewEntry builds an activity row stamped now.
func NewEntry(fridgeID, email, action, itemName, details string) *entities.ActivityLog {
	return &entities.ActivityLog{
		FridgeID:   fridgeID,
		UserEmail:  email,
		ActionType: action,
		ItemName:   itemName,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
}

// Batch collects change events while a transaction is open. Flush publishes them once the
// transaction has committed; a rolled back transaction simply never flushes.
type Batch struct {
	events []domain.ChangeEvent
}

func (b *Batch) Add(kind, table, fridgeID string, newRow, oldRow any) {
	ev, err := domain.NewChangeEvent(kind, table, fridgeID, newRow, oldRow)
	if err != nil {
		log.Errorf("activity: encode %s %s event: %v", kind, table, err)
		return
	}
	b.events = append(b.events, ev)
}

func (b *Batch) Activity(entry *entities.ActivityLog) {
	b.Add(domain.EventInsert, domain.TableActivityLogs, entry.FridgeID, entry, nil)
}

func (b *Batch) Events() []domain.ChangeEvent {
	return b.events
}

func (b *Batch) Flush(p Publisher) {
	if p == nil {
		return
	}
	for _, ev := range b.events {
		p.Publish(ev)
	}
	b.events = nil
}
