package fridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/pkg/ids"
	"nomorewaste/pkg/ledger"
)

type (
	// Backend is the authoritative store as seen by one signed-in member.
	Backend interface {
		Fetch(ctx context.Context) (domain.InventoryResponse, error)
		AddItems(ctx context.Context, items []domain.NewItemRequest) ([]entities.Item, error)
		Split(ctx context.Context, itemID string, d ledger.Disposition, amount int) (domain.SplitResponse, error)
		UpdateItem(ctx context.Context, id string, req domain.UpdateItemRequest) error
		DeleteItem(ctx context.Context, id string) error
		UpdateLog(ctx context.Context, d ledger.Disposition, id string, req domain.UpdateLogRequest) error
		DeleteLog(ctx context.Context, d ledger.Disposition, id string) error
	}

	// Feed delivers a household's change events. The channel is closed when the
	// subscription ends for any reason.
	Feed interface {
		Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, error)
	}

	Notifier interface {
		Notify(n Notice)
	}

	NotifierFunc func(n Notice)

	// Notice reports a failed operation to the member. IDs are the records left unconfirmed.
	Notice struct {
		Op  string
		Err error
		IDs []string
	}

	Option func(*Session)
)

func (f NotifierFunc) Notify(n Notice) { f(n) }

func (n Notice) Message() string {
	return fmt.Sprintf("%s failed: %v", n.Op, n.Err)
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithOnChange registers a callback invoked with every new snapshot, outside the session lock.
func WithOnChange(fn func(Snapshot)) Option {
	return func(s *Session) { s.onChange = fn }
}

func WithActor(email, fridgeID string) Option {
	return func(s *Session) {
		s.actor = email
		s.fridgeID = fridgeID
	}
}

func WithReconnectBackoff(min, max time.Duration) Option {
	return func(s *Session) {
		s.backoffMin = min
		s.backoffMax = max
	}
}

// Op is the remote half of a two-phase mutation. The local half has already been applied
// when the Op is returned.
type Op struct {
	done chan struct{}
	err  error
	// IDs holds the ids touched locally, temporary ones included.
	IDs []string
}

func newOp(ids ...string) *Op {
	return &Op{done: make(chan struct{}), IDs: ids}
}

func (o *Op) finish(err error) {
	o.err = err
	close(o.done)
}

func (o *Op) Done() <-chan struct{} { return o.done }

// Err is nil until Done is closed.
func (o *Op) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

func (o *Op) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session coordinates one member's view of their household. All state transitions go
// through the session lock; network calls never hold it.
type Session struct {
	backend  Backend
	notifier Notifier
	onChange func(Snapshot)
	now      func() time.Time
	actor    string
	fridgeID string

	backoffMin time.Duration
	backoffMax time.Duration

	mu       sync.Mutex
	snap     Snapshot
	inFlight map[string]bool
	gen      uint64
	// fetchSeq numbers re-fetches as they start; applied is the newest one merged so far.
	fetchSeq uint64
	applied  uint64

	wg sync.WaitGroup
}

func NewSession(backend Backend, opts ...Option) *Session {
	s := &Session{
		backend:    backend,
		now:        time.Now,
		inFlight:   make(map[string]bool),
		backoffMin: 500 * time.Millisecond,
		backoffMax: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = NotifierFunc(func(n Notice) {
			log.Warnf("fridge: %s", n.Message())
		})
	}
	return s
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Wait blocks until every remote phase started so far has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// update applies fn under the lock and publishes the result.
func (s *Session) update(fn func(Snapshot) Snapshot) Snapshot {
	s.mu.Lock()
	s.snap = fn(s.snap)
	next := s.snap
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(next)
	}
	return next
}

// tryUpdate is update for transitions that may be rejected without changing state.
func (s *Session) tryUpdate(fn func(Snapshot) (Snapshot, error)) error {
	s.mu.Lock()
	next, err := fn(s.snap)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.snap = next
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(next)
	}
	return nil
}

func (s *Session) current() (Backend, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend, s.gen
}

// Actor is the email recorded for this session's member.
func (s *Session) Actor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actor
}

// remote runs phase two. On success it applies onOK and reconciles; on failure it marks
// ids unconfirmed and notifies. Results from before a Reinitialize are discarded.
func (s *Session) remote(ctx context.Context, op *Op, name string, call func(ctx context.Context, b Backend) error, onOK func()) {
	backend, gen := s.current()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := context.WithoutCancel(ctx)

		err := call(ctx, backend)

		s.mu.Lock()
		for _, id := range op.IDs {
			delete(s.inFlight, id)
		}
		stale := s.gen != gen
		s.mu.Unlock()

		if stale {
			op.finish(err)
			return
		}
		if err != nil {
			log.Errorf("fridge: %s: %v", name, err)
			s.update(func(snap Snapshot) Snapshot {
				return MarkUnconfirmed(snap, err.Error(), op.IDs...)
			})
			s.notifier.Notify(Notice{Op: name, Err: err, IDs: op.IDs})
			op.finish(err)
			return
		}
		if onOK != nil {
			onOK()
		}
		if rerr := s.Reconcile(ctx); rerr != nil {
			log.Warnf("fridge: reconcile after %s: %v", name, rerr)
		}
		op.finish(nil)
	}()
}

func (s *Session) rejectTemp(id string) error {
	if ids.IsTemp(id) {
		return domain.ErrItemNotConfirmed
	}
	return nil
}

// AddItems applies the batch locally under temporary ids, then persists it.
func (s *Session) AddItems(ctx context.Context, reqs []domain.NewItemRequest) (*Op, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrNoItems
	}
	now := s.now().UTC()
	local := make([]entities.Item, len(reqs))
	tempIDs := make([]string, len(reqs))
	for i, r := range reqs {
		tempIDs[i] = ids.NewTemp()
		local[i] = entities.Item{
			ID:        tempIDs[i],
			FridgeID:  s.fridgeID,
			Name:      r.Name,
			Category:  domain.NormalizeCategory(r.Category),
			Price:     r.Price,
			Quantity:  r.Quantity,
			Expiry:    r.Expiry,
			Emoji:     r.Emoji,
			CreatedAt: now,
		}
		if local[i].Emoji == "" {
			local[i].Emoji = domain.CategoryEmoji(local[i].Category)
		}
	}

	op := newOp(tempIDs...)
	s.mu.Lock()
	for _, id := range tempIDs {
		s.inFlight[id] = true
	}
	s.mu.Unlock()
	s.update(func(snap Snapshot) Snapshot { return AddLocal(snap, local...) })

	var confirmed []entities.Item
	s.remote(ctx, op, "add items", func(ctx context.Context, b Backend) error {
		var err error
		confirmed, err = b.AddItems(ctx, reqs)
		return err
	}, func() {
		s.update(func(snap Snapshot) Snapshot {
			for i, item := range confirmed {
				if i < len(tempIDs) {
					snap = ConfirmItem(snap, tempIDs[i], item)
				}
			}
			return snap
		})
	})
	return op, nil
}

func (s *Session) Consume(ctx context.Context, itemID string, amount *int) (*Op, error) {
	return s.split(ctx, itemID, amount, ledger.Consumed)
}

func (s *Session) Waste(ctx context.Context, itemID string, amount *int) (*Op, error) {
	return s.split(ctx, itemID, amount, ledger.Wasted)
}

func (s *Session) split(ctx context.Context, itemID string, amount *int, d ledger.Disposition) (*Op, error) {
	if err := s.rejectTemp(itemID); err != nil {
		return nil, err
	}
	entryID := ids.NewTemp()
	var out ledger.Outcome
	err := s.tryUpdate(func(snap Snapshot) (Snapshot, error) {
		var err error
		snap, out, err = SplitLocal(snap, itemID, amount, d, entryID, s.now().UTC())
		return snap, err
	})
	if err != nil {
		return nil, err
	}

	op := newOp(itemID, entryID)
	s.mu.Lock()
	s.inFlight[entryID] = true
	s.mu.Unlock()

	var res domain.SplitResponse
	s.remote(ctx, op, string(d), func(ctx context.Context, b Backend) error {
		var err error
		res, err = b.Split(ctx, itemID, d, out.Entry.Quantity)
		return err
	}, func() {
		s.update(func(snap Snapshot) Snapshot {
			if res.Waste != nil {
				snap = ConfirmWaste(snap, entryID, *res.Waste)
			}
			if res.Consumed != nil {
				snap = ConfirmConsumed(snap, entryID, *res.Consumed)
			}
			return snap.withoutUnconfirmed(itemID)
		})
	})
	return op, nil
}

func (s *Session) EditItem(ctx context.Context, id string, req domain.UpdateItemRequest) (*Op, error) {
	if err := s.rejectTemp(id); err != nil {
		return nil, err
	}
	if _, ok := s.Snapshot().Item(id); !ok {
		return nil, domain.ErrItemNotFound
	}
	s.update(func(snap Snapshot) Snapshot { return EditItemLocal(snap, id, req) })

	op := newOp(id)
	s.remote(ctx, op, "edit item", func(ctx context.Context, b Backend) error {
		return b.UpdateItem(ctx, id, req)
	}, nil)
	return op, nil
}

func (s *Session) DeleteItem(ctx context.Context, id string) (*Op, error) {
	if err := s.rejectTemp(id); err != nil {
		return nil, err
	}
	s.update(func(snap Snapshot) Snapshot { return RemoveItemLocal(snap, id) })

	op := newOp(id)
	s.remote(ctx, op, "delete item", func(ctx context.Context, b Backend) error {
		return b.DeleteItem(ctx, id)
	}, nil)
	return op, nil
}

func (s *Session) EditLog(ctx context.Context, d ledger.Disposition, id string, req domain.UpdateLogRequest) (*Op, error) {
	if err := s.rejectTemp(id); err != nil {
		return nil, err
	}
	s.update(func(snap Snapshot) Snapshot { return EditLogLocal(snap, d, id, req) })

	op := newOp(id)
	s.remote(ctx, op, "edit history", func(ctx context.Context, b Backend) error {
		return b.UpdateLog(ctx, d, id, req)
	}, nil)
	return op, nil
}

func (s *Session) DeleteLog(ctx context.Context, d ledger.Disposition, id string) (*Op, error) {
	if err := s.rejectTemp(id); err != nil {
		return nil, err
	}
	s.update(func(snap Snapshot) Snapshot { return RemoveLogLocal(snap, d, id) })

	op := newOp(id)
	s.remote(ctx, op, "delete history", func(ctx context.Context, b Backend) error {
		return b.DeleteLog(ctx, d, id)
	}, nil)
	return op, nil
}

// CommitDrafts turns reviewed receipt drafts into a batch add. It returns once the batch
// is applied locally; persistence failures arrive through the notifier.
func (s *Session) CommitDrafts(ctx context.Context, drafts []domain.DraftItem) error {
	reqs := make([]domain.NewItemRequest, len(drafts))
	for i, d := range drafts {
		reqs[i] = d.NewItem()
	}
	_, err := s.AddItems(ctx, reqs)
	return err
}

// ApplyEvent merges one feed event into the current snapshot.
func (s *Session) ApplyEvent(ev domain.ChangeEvent) error {
	return s.tryUpdate(func(snap Snapshot) (Snapshot, error) {
		return ApplyEvent(snap, ev)
	})
}

// Reconcile re-fetches every collection and replaces local state with it, keeping only
// temporary records whose add is still in flight. A fetch that started before one already
// merged is discarded.
func (s *Session) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	backend, gen := s.backend, s.gen
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()
	if backend == nil {
		return errNoBackend
	}
	inv, err := backend.Fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.gen != gen || seq < s.applied {
		s.mu.Unlock()
		return nil
	}
	s.applied = seq
	inFlight := make(map[string]bool, len(s.inFlight))
	for id := range s.inFlight {
		inFlight[id] = true
	}
	s.snap = MergeRefetch(s.snap, inv, inFlight)
	next := s.snap
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(next)
	}
	return nil
}

// Reinitialize drops all local state after a sign-in or sign-out and loads the new member's
// household. A nil backend keeps the current one.
func (s *Session) Reinitialize(ctx context.Context, backend Backend, email, fridgeID string) error {
	s.mu.Lock()
	s.gen++
	if backend != nil {
		s.backend = backend
	}
	s.actor = email
	s.fridgeID = fridgeID
	s.snap = Snapshot{}
	s.inFlight = make(map[string]bool)
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(Snapshot{})
	}
	return s.Reconcile(ctx)
}

// Run keeps the session subscribed to feed until ctx ends, reconciling after every
// (re)connect. It stops once the feed refuses the member for not belonging to the household.
func (s *Session) Run(ctx context.Context, feed Feed) error {
	backoff := s.backoffMin
	for {
		events, err := feed.Subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, domain.ErrNotAMember) {
				return err
			}
			log.Warnf("fridge: subscribe failed, retrying in %s: %v", backoff, err)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, s.backoffMax)
			continue
		}
		backoff = s.backoffMin

		if err := s.Reconcile(ctx); err != nil {
			log.Warnf("fridge: reconcile after connect: %v", err)
		}

	drain:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-events:
				if !ok {
					break drain
				}
				if err := s.ApplyEvent(ev); err != nil {
					log.Warnf("fridge: dropped %s %s event: %v", ev.Type, ev.Table, err)
				}
			}
		}

		log.Info("fridge: feed disconnected, reconnecting")
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var errNoBackend = errors.New("fridge: no backend")
