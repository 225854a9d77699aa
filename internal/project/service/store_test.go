package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/onoo-labs/marketing-assistant/internal/logging"
	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
	"github.com/onoo-labs/marketing-assistant/internal/project/repository"
)

// fakeRemote is a scriptable RemoteStore. When gate is set, Save blocks
// until a value is sent on it.
type fakeRemote struct {
	mu       sync.Mutex
	doc      []byte
	fetchErr error
	saveErr  error
	saves    int
	gate     chan struct{}
	started  chan struct{}
}

func (f *fakeRemote) Fetch(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.doc == nil {
		return nil, domain.ErrProjectNotFound
	}
	return f.doc, nil
}

func (f *fakeRemote) Save(ctx context.Context, doc []byte) error {
	f.mu.Lock()
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.doc = append([]byte(nil), doc...)
	return nil
}

func (f *fakeRemote) savesCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func newTestStore(remote repository.RemoteStore, local repository.LocalCache, opts Options) *Store {
	return NewStore(local, remote, logging.Nop(), opts)
}

func encodeState(t *testing.T, s domain.ProjectState) string {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return string(b)
}

func TestHydrate_PrefersRemote(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{doc: []byte(`{"activeTab":"CHATBOT","productInfo":{"usp":"remote"}}`)}
	local := repository.NewMemoryCache()
	require.NoError(t, local.Set(ctx, `{"activeTab":"AD_CREATIVE"}`))

	store := newTestStore(remote, local, DefaultOptions())
	src, err := store.Hydrate(ctx)
	require.NoError(t, err)

	assert.Equal(t, SourceRemote, src)
	st := store.State()
	assert.Equal(t, domain.TabChatbot, st.ActiveTab)
	assert.Equal(t, "remote", st.ProductInfo.USP)
	assert.Equal(t, domain.Defaults().ProductInfo.Name, st.ProductInfo.Name, "reconciled over defaults")
}

func TestHydrate_RemoteNotFoundAndNoLocalYieldsDefaults(t *testing.T) {
	store := newTestStore(&fakeRemote{}, repository.NewMemoryCache(), DefaultOptions())

	src, err := store.Hydrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceDefaults, src)
	if diff := cmp.Diff(domain.Defaults(), store.State()); diff != "" {
		t.Fatalf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestHydrate_FallsBackToLocal(t *testing.T) {
	cases := map[string]*fakeRemote{
		"not found":     {},
		"remote error":  {fetchErr: errors.New("connection refused")},
		"remote broken": {doc: []byte(`<html>`)},
		"remote null":   {doc: []byte(`null`)},
		"remote array":  {doc: []byte(`[{"activeTab":"CHATBOT"}]`)},
	}
	for name, remote := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			local := repository.NewMemoryCache()
			require.NoError(t, local.Set(ctx, `{"activeTab":"VOICE_CONSULTANT","chatHistory":"oops"}`))

			store := newTestStore(remote, local, DefaultOptions())
			src, err := store.Hydrate(ctx)
			require.NoError(t, err)

			assert.Equal(t, SourceLocal, src)
			st := store.State()
			assert.Equal(t, domain.TabVoiceConsultant, st.ActiveTab)
			assert.Equal(t, []domain.ChatMessage{domain.Greeting()}, st.ChatHistory)
		})
	}
}

func TestHydrate_WithoutRemoteUsesLocal(t *testing.T) {
	ctx := context.Background()
	local := repository.NewMemoryCache()
	require.NoError(t, local.Set(ctx, `{"activeTab":"CHATBOT"}`))

	store := NewStore(local, nil, logging.Nop(), DefaultOptions())
	src, err := store.Hydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, src)
}

func TestHydrate_BrokenLocalYieldsDefaults(t *testing.T) {
	ctx := context.Background()
	local := repository.NewMemoryCache()
	require.NoError(t, local.Set(ctx, `{{{`))

	store := newTestStore(&fakeRemote{}, local, DefaultOptions())
	src, err := store.Hydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceDefaults, src)

	require.NoError(t, local.Set(ctx, `[]`))
	store = newTestStore(&fakeRemote{}, local, DefaultOptions())
	src, err = store.Hydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceDefaults, src)

	local.Fail(errors.New("disk gone"))
	store = newTestStore(&fakeRemote{}, local, DefaultOptions())
	src, err = store.Hydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceDefaults, src)
}

func TestHydrate_RunsOnce(t *testing.T) {
	store := newTestStore(&fakeRemote{}, repository.NewMemoryCache(), DefaultOptions())

	_, err := store.Hydrate(context.Background())
	require.NoError(t, err)
	_, err = store.Hydrate(context.Background())
	assert.ErrorIs(t, err, domain.ErrAlreadyHydrated)
}

func TestUpdate_WritesLocalCacheInOrder(t *testing.T) {
	ctx := context.Background()
	local := repository.NewMemoryCache()
	store := newTestStore(nil, local, DefaultOptions())

	for _, tab := range domain.Tabs() {
		tab := tab
		store.Update(ctx, func(p *domain.ProjectState) { p.ActiveTab = tab })

		raw, ok, err := local.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, encodeState(t, store.State()), raw)
	}
	assert.Equal(t, len(domain.Tabs()), local.Writes())
}

func TestUpdate_IsCopyOnWrite(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil, repository.NewMemoryCache(), DefaultOptions())

	before := store.State()
	after := store.Update(ctx, func(p *domain.ProjectState) {
		p.ChatHistory = append(p.ChatHistory, domain.ChatMessage{Role: domain.RoleUser, Content: "hi"})
		p.ChatHistory[0].Content = "edited"
	})

	assert.Len(t, before.ChatHistory, 1)
	assert.Equal(t, domain.GreetingMessage, before.ChatHistory[0].Content)
	assert.Len(t, after.ChatHistory, 2)

	after.ChatHistory[1].Content = "mutating the returned copy"
	assert.Equal(t, "hi", store.State().ChatHistory[1].Content)
}

func TestUpdate_LocalFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	local := repository.NewMemoryCache()
	local.Fail(errors.New("quota exceeded"))
	store := newTestStore(nil, local, DefaultOptions())

	got := store.Update(ctx, func(p *domain.ProjectState) { p.ActiveTab = domain.TabChatbot })
	assert.Equal(t, domain.TabChatbot, got.ActiveTab)
	assert.Equal(t, domain.TabChatbot, store.State().ActiveTab)
}

func TestUpdate_ConcurrentMutationsAllApply(t *testing.T) {
	ctx := context.Background()
	local := repository.NewMemoryCache()
	store := newTestStore(nil, local, DefaultOptions())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Update(ctx, func(p *domain.ProjectState) {
				p.VoiceConsultant.History = append(p.VoiceConsultant.History, domain.VoiceTurn{Role: domain.RoleUser})
			})
		}()
	}
	wg.Wait()

	st := store.State()
	assert.Len(t, st.VoiceConsultant.History, 50)
	raw, _, err := local.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, encodeState(t, st), raw, "cache holds the newest state")
}

func TestSaveRemote_StatusCycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	remote := &fakeRemote{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	store := newTestStore(remote, repository.NewMemoryCache(), Options{SavedWindow: 30 * time.Millisecond, ErrorWindow: time.Second})
	defer store.Close()

	assert.Equal(t, domain.SaveIdle, store.SaveStatus())

	done := store.SaveRemoteAsync(context.Background())
	<-remote.started
	assert.Equal(t, domain.SaveSaving, store.SaveStatus())

	remote.gate <- struct{}{}
	require.NoError(t, <-done)
	assert.Equal(t, domain.SaveSaved, store.SaveStatus())

	assert.Eventually(t, func() bool { return store.SaveStatus() == domain.SaveIdle }, time.Second, 5*time.Millisecond)
	assert.JSONEq(t, encodeState(t, store.State()), string(remote.doc))
}

func TestSaveRemote_ErrorStatus(t *testing.T) {
	defer goleak.VerifyNone(t)

	remote := &fakeRemote{saveErr: errors.New("500")}
	store := newTestStore(remote, repository.NewMemoryCache(), Options{SavedWindow: time.Second, ErrorWindow: 30 * time.Millisecond})
	defer store.Close()

	err := store.SaveRemote(context.Background())
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.TierRemote, perr.Tier)
	assert.Equal(t, domain.SaveError, store.SaveStatus())

	assert.Eventually(t, func() bool { return store.SaveStatus() == domain.SaveIdle }, time.Second, 5*time.Millisecond)
}

func TestSaveRemote_RejectsConcurrentSave(t *testing.T) {
	defer goleak.VerifyNone(t)

	remote := &fakeRemote{gate: make(chan struct{}), started: make(chan struct{}, 2)}
	store := newTestStore(remote, repository.NewMemoryCache(), Options{SavedWindow: 20 * time.Millisecond, ErrorWindow: 20 * time.Millisecond})
	defer store.Close()

	first := store.SaveRemoteAsync(context.Background())
	<-remote.started

	assert.ErrorIs(t, store.SaveRemote(context.Background()), domain.ErrSaveInProgress)
	assert.Equal(t, domain.SaveSaving, store.SaveStatus())

	remote.gate <- struct{}{}
	require.NoError(t, <-first)
	assert.Equal(t, 1, remote.savesCount())
}

func TestSaveRemote_StaleResetDoesNotClobberNewerStatus(t *testing.T) {
	defer goleak.VerifyNone(t)

	remote := &fakeRemote{}
	store := newTestStore(remote, repository.NewMemoryCache(), Options{SavedWindow: 40 * time.Millisecond, ErrorWindow: time.Second})
	defer store.Close()

	require.NoError(t, store.SaveRemote(context.Background()))
	assert.Equal(t, domain.SaveSaved, store.SaveStatus())

	remote.mu.Lock()
	remote.gate = make(chan struct{})
	remote.started = make(chan struct{}, 1)
	remote.mu.Unlock()

	second := store.SaveRemoteAsync(context.Background())
	<-remote.started
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, domain.SaveSaving, store.SaveStatus(), "reset from the first save is stale")

	remote.gate <- struct{}{}
	require.NoError(t, <-second)
}

func TestSaveRemote_DoesNotTouchState(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	store := newTestStore(remote, repository.NewMemoryCache(), Options{})
	defer store.Close()

	store.Update(ctx, func(p *domain.ProjectState) { p.ActiveTab = domain.TabAdCreative })
	before := store.State()
	require.NoError(t, store.SaveRemote(ctx))

	assert.Empty(t, cmp.Diff(before, store.State()))
	assert.Equal(t, domain.SaveIdle, store.SaveStatus(), "zero windows return straight to idle")
}

func TestSaveRemote_WithoutRemote(t *testing.T) {
	store := NewStore(repository.NewMemoryCache(), nil, logging.Nop(), DefaultOptions())
	var perr *domain.PersistenceError
	assert.ErrorAs(t, store.SaveRemote(context.Background()), &perr)
	assert.Equal(t, domain.SaveIdle, store.SaveStatus())
}

func TestExportImport_RoundTripIsBitIdentical(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil, repository.NewMemoryCache(), DefaultOptions())
	store.Update(ctx, func(p *domain.ProjectState) {
		p.ActiveTab = domain.TabPostGenerator
		p.ChatHistory = append(p.ChatHistory, domain.ChatMessage{
			Role: domain.RoleModel, Content: "رد",
			Sources: []domain.GroundingChunk{{Web: domain.WebSource{URI: "https://a", Title: "A"}}},
		})
		p.Logos.Secondary = "data:image/png;base64,AAAA"
	})

	exported, err := store.Export()
	require.NoError(t, err)

	other := newTestStore(nil, repository.NewMemoryCache(), DefaultOptions())
	_, err = other.Import(ctx, exported)
	require.NoError(t, err)

	reexported, err := other.Export()
	require.NoError(t, err)
	assert.Equal(t, string(exported), string(reexported))
}

func TestImport_MalformedLeavesStateUnchanged(t *testing.T) {
	logo := "data:image/png;base64,iVBORw0KGgo="
	cases := map[string]string{
		"not json": "this is not json",
		"null":     `null`,
		"array":    `[]`,
		"number":   `42`,
		"string":   `"x"`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			local := repository.NewMemoryCache()
			store := newTestStore(nil, local, DefaultOptions())
			store.Update(ctx, func(p *domain.ProjectState) {
				p.ActiveTab = domain.TabChatbot
				p.Logos.Primary = logo
			})
			writes := local.Writes()

			_, err := store.Import(ctx, []byte(doc))
			var merr *domain.MalformedImportError
			require.ErrorAs(t, err, &merr)
			assert.ErrorIs(t, err, domain.ErrMalformedDocument)

			st := store.State()
			assert.Equal(t, domain.TabChatbot, st.ActiveTab)
			assert.Equal(t, logo, st.Logos.Primary)
			assert.Equal(t, writes, local.Writes())
		})
	}
}

func TestImport_ReconcilesDocument(t *testing.T) {
	store := newTestStore(nil, repository.NewMemoryCache(), DefaultOptions())

	st, err := store.Import(context.Background(), []byte(`{"chatHistory": "not-an-array"}`))
	require.NoError(t, err)
	assert.Equal(t, []domain.ChatMessage{domain.Greeting()}, st.ChatHistory)
	assert.Equal(t, st, store.State())
}
