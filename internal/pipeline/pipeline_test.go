package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/KigaliAI/youtufy-app/internal/auth"
	"github.com/KigaliAI/youtufy-app/internal/cache"
	"github.com/KigaliAI/youtufy-app/internal/model"
	"github.com/KigaliAI/youtufy-app/internal/store"
	"github.com/KigaliAI/youtufy-app/internal/youtube"
)

const testUser = "alice@example.com"

// fakeCreds is an in-memory credential store.
type fakeCreds struct {
	mu    sync.Mutex
	creds map[string]*model.Credential
}

func newFakeCreds(creds ...*model.Credential) *fakeCreds {
	s := &fakeCreds{creds: make(map[string]*model.Credential)}
	for _, c := range creds {
		s.creds[c.UserID] = c
	}
	return s
}

func (s *fakeCreds) Get(_ context.Context, userID string) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *fakeCreds) Put(_ context.Context, userID string, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[userID] = cred
	return nil
}

func (s *fakeCreds) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, userID)
	return nil
}

// fakeTokens scripts the credential validation step.
type fakeTokens struct {
	mu        sync.Mutex
	calls     int
	refreshed *model.Credential
	err       error
}

func (f *fakeTokens) EnsureValid(_ context.Context, cred *model.Credential) (*model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.refreshed != nil {
		return f.refreshed, nil
	}
	return cred, nil
}

// fakePlatform scripts the data API surface.
type fakePlatform struct {
	mu          sync.Mutex
	listCalls   int
	enrichCalls int
	uploadCalls int

	subs      []model.Subscription
	listErr   error
	dropIDs   map[string]bool // channels the enrichment "loses"
	uploadAt  *time.Time
	uploadErr error
	wantToken string // when set, every call asserts this access token
	onList    func() // hook invoked before listing returns
}

func (f *fakePlatform) checkToken(cred *model.Credential) error {
	if f.wantToken != "" && cred.AccessToken != f.wantToken {
		return fmt.Errorf("unexpected access token %q", cred.AccessToken)
	}
	return nil
}

func (f *fakePlatform) ListSubscriptions(_ context.Context, cred *model.Credential) ([]model.Subscription, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if err := f.checkToken(cred); err != nil {
		return nil, err
	}
	if f.onList != nil {
		f.onList()
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.subs, nil
}

func (f *fakePlatform) EnrichChannels(_ context.Context, cred *model.Credential, subs []model.Subscription) ([]model.EnrichedChannel, error) {
	f.mu.Lock()
	f.enrichCalls++
	f.mu.Unlock()
	if err := f.checkToken(cred); err != nil {
		return nil, err
	}
	enriched := make([]model.EnrichedChannel, 0, len(subs))
	for _, s := range subs {
		if f.dropIDs[s.ChannelID] {
			continue
		}
		enriched = append(enriched, model.EnrichedChannel{
			Subscription:      s,
			Stats:             model.ChannelStats{SubscriberCount: 1000, VideoCount: 10},
			ChannelURL:        model.ChannelURL(s.ChannelID),
			UploadsPlaylistID: "UU" + s.ChannelID,
		})
	}
	return enriched, nil
}

func (f *fakePlatform) LatestUpload(_ context.Context, cred *model.Credential, _ string) (*time.Time, error) {
	f.mu.Lock()
	f.uploadCalls++
	f.mu.Unlock()
	if err := f.checkToken(cred); err != nil {
		return nil, err
	}
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadAt, nil
}

func makeSubs(n int) []model.Subscription {
	subs := make([]model.Subscription, 0, n)
	for i := 1; i <= n; i++ {
		subs = append(subs, model.Subscription{
			ChannelID: fmt.Sprintf("ch-%03d", i),
			Title:     fmt.Sprintf("Channel %d", i),
		})
	}
	return subs
}

func validCred() *model.Credential {
	return &model.Credential{
		UserID:      testUser,
		AccessToken: "at",
		Expiry:      time.Now().Add(time.Hour),
	}
}

func TestFetch_FullRun(t *testing.T) {
	platform := &fakePlatform{subs: makeSubs(120)}
	p := New(newFakeCreds(validCred()), &fakeTokens{}, platform, cache.NewMemory(), Options{})

	fr, err := p.Fetch(context.Background(), testUser, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if fr.State != StateCached {
		t.Errorf("State = %v, want StateCached", fr.State)
	}
	if fr.CacheHit {
		t.Error("first fetch should not be a cache hit")
	}
	if fr.Partial {
		t.Error("complete enrichment should not be partial")
	}
	if len(fr.Result.Channels) != 120 {
		t.Fatalf("got %d channels, want 120", len(fr.Result.Channels))
	}
	for i, ch := range fr.Result.Channels {
		want := fmt.Sprintf("ch-%03d", i+1)
		if ch.ChannelID != want {
			t.Fatalf("channels[%d].ChannelID = %q, want %q", i, ch.ChannelID, want)
		}
	}
	if fr.Result.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestFetch_CacheHitShortCircuits(t *testing.T) {
	platform := &fakePlatform{subs: makeSubs(5)}
	tokens := &fakeTokens{}
	p := New(newFakeCreds(validCred()), tokens, platform, cache.NewMemory(), Options{})

	if _, err := p.Fetch(context.Background(), testUser, false); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}

	fr, err := p.Fetch(context.Background(), testUser, false)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if !fr.CacheHit {
		t.Error("second fetch should be a cache hit")
	}
	if platform.listCalls != 1 {
		t.Errorf("list called %d times, want 1", platform.listCalls)
	}
	if tokens.calls != 1 {
		t.Errorf("credential validated %d times, want 1 (cache hit skips it)", tokens.calls)
	}
}

func TestFetch_ForceBypassesCache(t *testing.T) {
	platform := &fakePlatform{subs: makeSubs(5)}
	p := New(newFakeCreds(validCred()), &fakeTokens{}, platform, cache.NewMemory(), Options{})

	if _, err := p.Fetch(context.Background(), testUser, false); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}

	fr, err := p.Fetch(context.Background(), testUser, true)
	if err != nil {
		t.Fatalf("forced Fetch: %v", err)
	}
	if fr.CacheHit {
		t.Error("forced fetch must not be a cache hit")
	}
	if platform.listCalls != 2 {
		t.Errorf("list called %d times, want 2", platform.listCalls)
	}
}

func TestFetch_ExpiredCredentialRefreshed(t *testing.T) {
	stale := &model.Credential{
		UserID:       testUser,
		AccessToken:  "stale",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(-time.Hour),
	}
	refreshed := &model.Credential{
		UserID:      testUser,
		AccessToken: "fresh",
		Expiry:      time.Now().Add(time.Hour),
	}
	platform := &fakePlatform{subs: makeSubs(3), wantToken: "fresh"}
	p := New(newFakeCreds(stale), &fakeTokens{refreshed: refreshed}, platform, cache.NewMemory(), Options{})

	fr, err := p.Fetch(context.Background(), testUser, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(fr.Result.Channels) != 3 {
		t.Errorf("got %d channels, want 3", len(fr.Result.Channels))
	}
}

func TestFetch_NoCredential(t *testing.T) {
	resultCache := cache.NewMemory()
	p := New(newFakeCreds(), &fakeTokens{}, &fakePlatform{}, resultCache, Options{})

	fr, err := p.Fetch(context.Background(), testUser, false)
	if !errors.Is(err, auth.ErrAuthExpired) {
		t.Errorf("got %v, want ErrAuthExpired", err)
	}
	if fr.State != StateAuthRequired {
		t.Errorf("State = %v, want StateAuthRequired", fr.State)
	}
}

func TestFetch_RefreshRejected(t *testing.T) {
	resultCache := cache.NewMemory()
	platform := &fakePlatform{subs: makeSubs(3)}
	p := New(newFakeCreds(validCred()), &fakeTokens{err: auth.ErrAuthExpired}, platform, resultCache, Options{})

	fr, err := p.Fetch(context.Background(), testUser, false)
	if !errors.Is(err, auth.ErrAuthExpired) {
		t.Errorf("got %v, want ErrAuthExpired", err)
	}
	if fr.State != StateAuthRequired {
		t.Errorf("State = %v, want StateAuthRequired", fr.State)
	}
	if platform.listCalls != 0 {
		t.Errorf("list called %d times after auth failure, want 0", platform.listCalls)
	}
	if _, ok, _ := resultCache.Get(context.Background(), testUser); ok {
		t.Error("failed run must not commit a cache entry")
	}
}

func TestFetch_UpstreamUnavailable(t *testing.T) {
	resultCache := cache.NewMemory()
	platform := &fakePlatform{
		listErr: &youtube.APIError{Kind: youtube.KindTransient, Status: 503},
	}
	p := New(newFakeCreds(validCred()), &fakeTokens{}, platform, resultCache, Options{})

	fr, err := p.Fetch(context.Background(), testUser, false)
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *youtube.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("got %v, want wrapped APIError", err)
	}
	if fr.State != StateUpstreamUnavailable {
		t.Errorf("State = %v, want StateUpstreamUnavailable", fr.State)
	}
	if _, ok, _ := resultCache.Get(context.Background(), testUser); ok {
		t.Error("failed run must not commit a cache entry")
	}
}

func TestFetch_PartialEnrichment(t *testing.T) {
	resultCache := cache.NewMemory()
	platform := &fakePlatform{
		subs:    makeSubs(60),
		dropIDs: map[string]bool{"ch-010": true, "ch-020": true},
	}
	p := New(newFakeCreds(validCred()), &fakeTokens{}, platform, resultCache, Options{})

	fr, err := p.Fetch(context.Background(), testUser, false)
	if err != nil {
		t.Fatalf("partial enrichment must not fail the fetch: %v", err)
	}
	if !fr.Partial {
		t.Error("Partial should be set when channels are lost")
	}
	if len(fr.Result.Channels) != 58 {
		t.Errorf("got %d channels, want 58", len(fr.Result.Channels))
	}
	// Degraded results are still cached.
	if _, ok, _ := resultCache.Get(context.Background(), testUser); !ok {
		t.Error("partial result should be cached")
	}
}

func TestFetch_ResolvesLatestActivity(t *testing.T) {
	uploaded := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	platform := &fakePlatform{subs: makeSubs(10), uploadAt: &uploaded}
	p := New(newFakeCreds(validCred()), &fakeTokens{}, platform, cache.NewMemory(),
		Options{ResolveActivity: true, Workers: 3})

	fr, err := p.Fetch(context.Background(), testUser, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if platform.uploadCalls != 10 {
		t.Errorf("upload lookups = %d, want 10", platform.uploadCalls)
	}
	for i, ch := range fr.Result.Channels {
		if ch.LatestUpload == nil || !ch.LatestUpload.Equal(uploaded) {
			t.Fatalf("channels[%d].LatestUpload = %v, want %v", i, ch.LatestUpload, uploaded)
		}
	}
}

func TestFetch_ActivityFailuresLeaveNil(t *testing.T) {
	platform := &fakePlatform{
		subs:      makeSubs(5),
		uploadErr: &youtube.APIError{Kind: youtube.KindTransient, Status: 500},
	}
	p := New(newFakeCreds(validCred()), &fakeTokens{}, platform, cache.NewMemory(),
		Options{ResolveActivity: true})

	fr, err := p.Fetch(context.Background(), testUser, false)
	if err != nil {
		t.Fatalf("activity failures must not fail the fetch: %v", err)
	}
	for i, ch := range fr.Result.Channels {
		if ch.LatestUpload != nil {
			t.Errorf("channels[%d].LatestUpload = %v, want nil", i, ch.LatestUpload)
		}
	}
}

func TestFetch_CancelledRunNotCached(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	resultCache := cache.NewMemory()
	platform := &fakePlatform{subs: makeSubs(5)}
	platform.onList = cancel // cancellation lands mid-run

	p := New(newFakeCreds(validCred()), &fakeTokens{}, platform, resultCache, Options{})

	_, err := p.Fetch(ctx, testUser, false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if _, ok, _ := resultCache.Get(context.Background(), testUser); ok {
		t.Error("cancelled run must not commit a cache entry")
	}
}

func TestFetch_EmptySubscriptionList(t *testing.T) {
	platform := &fakePlatform{subs: nil}
	p := New(newFakeCreds(validCred()), &fakeTokens{}, platform, cache.NewMemory(), Options{})

	fr, err := p.Fetch(context.Background(), testUser, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(fr.Result.Channels) != 0 {
		t.Errorf("got %d channels, want 0", len(fr.Result.Channels))
	}
	if fr.Partial {
		t.Error("empty listing is complete, not partial")
	}
}
