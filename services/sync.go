package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/wendylandcan/liqingai/db"
	"github.com/wendylandcan/liqingai/models"
)

const persistTimeout = 10 * time.Second

// SessionSync keeps one participant session's view of a case in step with
// the remote store. Patches apply to the local copy immediately and
// persist asynchronously; a poll loop observes the counterpart's writes.
// There is no push channel and no locking: the staleness guard in
// reconcile and field-wise patches are the only concurrency mechanisms.
type SessionSync struct {
	store    db.CaseStore
	caseID   string
	interval time.Duration

	// onChange fires when a polled read replaces the local copy.
	onChange func(*models.Case)
	// onSaveError surfaces a failed remote write to the UI layer.
	onSaveError func(error)

	mu    sync.Mutex
	local *models.Case
	// lastWrite is the completion signal of the most recently queued
	// persist; each new persist waits on it so remote writes land in
	// submission order.
	lastWrite chan struct{}

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func NewSessionSync(store db.CaseStore, c *models.Case, interval time.Duration) *SessionSync {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &SessionSync{
		store:    store,
		caseID:   c.ID,
		interval: interval,
		local:    c.Clone(),
		stop:     make(chan struct{}),
	}
}

// OnChange registers the callback invoked when a polled read updates the
// local view.
func (s *SessionSync) OnChange(fn func(*models.Case)) { s.onChange = fn }

// OnSaveError registers the callback invoked when a remote write fails.
func (s *SessionSync) OnSaveError(fn func(error)) { s.onSaveError = fn }

// Case returns a copy of the current local view.
func (s *SessionSync) Case() *models.Case {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.Clone()
}

// Apply folds the patch into the local view immediately and persists it
// in the background, keeping the UI responsive. Within one session
// patches apply in submission order, both locally under the mutex and
// remotely: each background persist waits for the previous one to
// finish, so a slow write can never be overtaken by a later patch and
// leave the store on the older value.
func (s *SessionSync) Apply(patch *models.CasePatch) *models.Case {
	s.mu.Lock()
	patch.Apply(s.local)
	snapshot := s.local.Clone()
	prev := s.lastWrite
	done := make(chan struct{})
	s.lastWrite = done
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		s.persist(patch)
	}()
	return snapshot
}

// persist writes the patch remotely. A failed write is surfaced as a save
// failure and the authoritative state is reloaded so the session does not
// diverge silently.
func (s *SessionSync) persist(patch *models.CasePatch) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.store.Update(ctx, s.caseID, patch); err != nil {
		log.Printf("remote write failed for case %s: %v", s.caseID, err)
		if s.onSaveError != nil {
			s.onSaveError(err)
		}
		s.reload(ctx)
	}
}

func (s *SessionSync) reload(ctx context.Context) {
	remote, err := s.store.FetchByID(ctx, s.caseID)
	if err != nil {
		log.Printf("failed to reload case %s: %v", s.caseID, err)
		return
	}
	s.mu.Lock()
	s.local = remote.Clone()
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(remote.Clone())
	}
}

// Wait blocks until pending background writes have settled.
func (s *SessionSync) Wait() { s.wg.Wait() }

// Start runs the poll loop until Stop is called or the context ends.
func (s *SessionSync) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.pollOnce(ctx)
			}
		}
	}()
}

// Stop ends the poll loop.
func (s *SessionSync) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *SessionSync) pollOnce(ctx context.Context) {
	remote, err := s.store.FetchByID(ctx, s.caseID)
	if err != nil {
		log.Printf("poll read failed for case %s: %v", s.caseID, err)
		return
	}
	s.reconcile(remote)
}

// reconcile applies the staleness guard: a polled snapshot whose stage is
// behind the locally-held stage is a lagging read taken before our own
// write landed, and is discarded rather than regressing the view.
func (s *SessionSync) reconcile(remote *models.Case) *models.Case {
	s.mu.Lock()
	if remote.Stage.Rank() < s.local.Stage.Rank() {
		snapshot := s.local.Clone()
		s.mu.Unlock()
		return snapshot
	}
	s.local = remote.Clone()
	snapshot := s.local.Clone()
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(snapshot.Clone())
	}
	return snapshot
}
