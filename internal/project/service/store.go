package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/onoo-labs/marketing-assistant/internal/logging"
	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
	"github.com/onoo-labs/marketing-assistant/internal/project/repository"
)

// Source tells where hydration found the project.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceLocal    Source = "local"
	SourceDefaults Source = "defaults"
)

var errNoRemote = errors.New("no remote store configured")

// Options tune how long a finished save stays visible.
type Options struct {
	SavedWindow time.Duration
	ErrorWindow time.Duration
}

// DefaultOptions match the status windows of the web client.
func DefaultOptions() Options {
	return Options{SavedWindow: 3 * time.Second, ErrorWindow: 5 * time.Second}
}

// Store owns the single ProjectState of a session. Every mutation replaces
// the state as a whole and is written to the local cache before Update
// returns; the remote store is written only by SaveRemote.
type Store struct {
	local  repository.LocalCache
	remote repository.RemoteStore
	log    logging.Logger
	opts   Options

	mu       sync.RWMutex
	state    domain.ProjectState
	hydrated bool

	// writeMu keeps local cache writes in mutation order.
	writeMu sync.Mutex

	statusMu  sync.Mutex
	status    domain.SaveStatus
	statusGen uint64
	timer     *time.Timer

	saving atomic.Bool
}

// NewStore creates a store holding the default state. remote may be nil
// for offline sessions.
func NewStore(local repository.LocalCache, remote repository.RemoteStore, log logging.Logger, opts Options) *Store {
	return &Store{
		local:  local,
		remote: remote,
		log:    log,
		opts:   opts,
		state:  domain.Defaults(),
		status: domain.SaveIdle,
	}
}

// Hydrate loads the persisted project once per session: remote first,
// then the local cache, then defaults. Whatever is found is reconciled
// against the current schema before it is published.
func (s *Store) Hydrate(ctx context.Context) (Source, error) {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return "", domain.ErrAlreadyHydrated
	}
	s.hydrated = true
	s.mu.Unlock()

	state, source := s.load(ctx)
	s.log.FromContext(ctx).LogInfof("project.hydrate", "hydrated from %s", source)

	s.Update(ctx, func(p *domain.ProjectState) { *p = state })
	return source, nil
}

func (s *Store) load(ctx context.Context) (domain.ProjectState, Source) {
	log := s.log.FromContext(ctx)

	if s.remote != nil {
		raw, err := s.remote.Fetch(ctx)
		switch {
		case err == nil:
			state, perr := domain.Reconcile(raw)
			if perr == nil {
				return state, SourceRemote
			}
			log.LogError("project.hydrate", &domain.PersistenceError{Tier: domain.TierRemote, Op: "decode", Err: perr})
		case errors.Is(err, domain.ErrProjectNotFound):
			log.LogInfo("project.hydrate", "no remote project yet")
		default:
			log.LogError("project.hydrate", &domain.PersistenceError{Tier: domain.TierRemote, Op: "fetch", Err: err})
		}
	}

	raw, ok, err := s.local.Get(ctx)
	if err != nil {
		log.LogError("project.hydrate", &domain.PersistenceError{Tier: domain.TierLocal, Op: "read", Err: err})
		return domain.Defaults(), SourceDefaults
	}
	if ok {
		state, perr := domain.Reconcile([]byte(raw))
		if perr == nil {
			return state, SourceLocal
		}
		log.LogError("project.hydrate", &domain.PersistenceError{Tier: domain.TierLocal, Op: "decode", Err: perr})
	}

	return domain.Defaults(), SourceDefaults
}

// State returns a copy of the published state.
func (s *Store) State() domain.ProjectState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update applies fn to a copy of the state, publishes the copy and backs
// it up locally. Local failures are logged, never returned.
func (s *Store) Update(ctx context.Context, fn func(*domain.ProjectState)) domain.ProjectState {
	s.mu.Lock()
	next := s.state.Clone()
	fn(&next)
	s.state = next
	snapshot := next.Clone()
	s.writeMu.Lock()
	s.mu.Unlock()

	defer s.writeMu.Unlock()
	s.persistLocal(context.WithoutCancel(ctx), snapshot)
	return snapshot
}

func (s *Store) persistLocal(ctx context.Context, state domain.ProjectState) {
	doc, err := json.Marshal(state)
	if err == nil {
		err = s.local.Set(ctx, string(doc))
	}
	if err != nil {
		s.log.FromContext(ctx).LogError("project.backup", &domain.PersistenceError{Tier: domain.TierLocal, Op: "write", Err: err})
	}
}

// SaveRemote writes the current state to the remote store. Only one save
// runs at a time; a call made while one is in flight returns
// domain.ErrSaveInProgress without sending anything.
func (s *Store) SaveRemote(ctx context.Context) error {
	if s.remote == nil {
		return &domain.PersistenceError{Tier: domain.TierRemote, Op: "save", Err: errNoRemote}
	}
	if !s.saving.CompareAndSwap(false, true) {
		return domain.ErrSaveInProgress
	}
	defer s.saving.Store(false)

	s.setStatus(domain.SaveSaving, 0)

	doc, err := json.Marshal(s.State())
	if err == nil {
		err = s.remote.Save(ctx, doc)
	}
	if err != nil {
		perr := &domain.PersistenceError{Tier: domain.TierRemote, Op: "save", Err: err}
		s.log.FromContext(ctx).LogError("project.save", perr)
		s.finishSave(domain.SaveError, s.opts.ErrorWindow)
		return perr
	}

	s.log.FromContext(ctx).LogInfo("project.save", "project saved to remote store")
	s.finishSave(domain.SaveSaved, s.opts.SavedWindow)
	return nil
}

// SaveRemoteAsync runs SaveRemote in the background. The channel receives
// exactly one result.
func (s *Store) SaveRemoteAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.SaveRemote(ctx)
	}()
	return done
}

// SaveStatus reports the state of the last remote save.
func (s *Store) SaveStatus() domain.SaveStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.status
}

func (s *Store) finishSave(status domain.SaveStatus, window time.Duration) {
	if window <= 0 {
		s.setStatus(domain.SaveIdle, 0)
		return
	}
	s.setStatus(status, window)
}

// setStatus publishes status and, when window is positive, schedules the
// return to idle. A reset scheduled for an older status is ignored.
func (s *Store) setStatus(status domain.SaveStatus, window time.Duration) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	s.statusGen++
	gen := s.statusGen
	s.status = status
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if window <= 0 {
		return
	}
	s.timer = time.AfterFunc(window, func() {
		s.statusMu.Lock()
		defer s.statusMu.Unlock()
		if s.statusGen == gen {
			s.status = domain.SaveIdle
			s.timer = nil
		}
	})
}

// Export renders the whole state as the pretty-printed project file.
func (s *Store) Export() ([]byte, error) {
	return domain.Encode(s.State())
}

// Import replaces the whole state with an exported document. The document
// is reconciled like a hydrated one; a file that is not a JSON object
// leaves the state untouched.
func (s *Store) Import(ctx context.Context, data []byte) (domain.ProjectState, error) {
	next, err := domain.Reconcile(data)
	if err != nil {
		return s.State(), &domain.MalformedImportError{Err: err}
	}
	s.log.FromContext(ctx).LogInfo("project.import", "project replaced from import")
	return s.Update(ctx, func(p *domain.ProjectState) { *p = next }), nil
}

// Close cancels a pending status reset.
func (s *Store) Close() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
