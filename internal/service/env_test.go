package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/pkg/artifact"
	"github.com/gradpass/ceremony-tickets/internal/pkg/gatefeed"
	"github.com/gradpass/ceremony-tickets/internal/pkg/qrcodec"
	"github.com/gradpass/ceremony-tickets/internal/repository"
	"github.com/gradpass/ceremony-tickets/internal/repository/dao"
	"github.com/gradpass/ceremony-tickets/internal/testutil"
)

const testSecret = "unit-test-checksum-secret"

type recordingFeed struct {
	mu     sync.Mutex
	events []gatefeed.Event
}

func (f *recordingFeed) Publish(_ context.Context, e gatefeed.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *recordingFeed) Events() []gatefeed.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gatefeed.Event(nil), f.events...)
}

// flakyStore fails every Put after the first failAfter successful ones.
type flakyStore struct {
	artifact.Store
	failAfter int32
	puts      int32
}

var errStoreDown = errors.New("artifact store unavailable")

func (s *flakyStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if atomic.AddInt32(&s.puts, 1) > s.failAfter {
		return errStoreDown
	}
	return s.Store.Put(ctx, key, data, contentType)
}

type testEnv struct {
	db         *gorm.DB
	repo       *repository.TicketingRepository
	codec      *qrcodec.Codec
	store      artifact.Store
	feed       *recordingFeed
	tickets    *TicketService
	ceremonies *CeremonyService
	verifier   *VerificationService
	requests   *RequestService

	students int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := artifact.NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	return newTestEnvWithStore(t, store, IssuanceConfig{})
}

func newTestEnvWithStore(t *testing.T, store artifact.Store, cfg IssuanceConfig) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	repo := repository.NewTicketingRepository(dao.NewTicketingDAO(db))
	codec, err := qrcodec.New(testSecret, 64)
	require.NoError(t, err)

	feed := &recordingFeed{}
	tickets := NewTicketService(repo, codec, store, cfg)

	return &testEnv{
		db:         db,
		repo:       repo,
		codec:      codec,
		store:      store,
		feed:       feed,
		tickets:    tickets,
		ceremonies: NewCeremonyService(repo, tickets),
		verifier:   NewVerificationService(repo, codec, feed),
		requests:   NewRequestService(repo, tickets),
	}
}

func (e *testEnv) createCeremony(t *testing.T, baseTickets int, opts ...func(*domain.Ceremony)) domain.Ceremony {
	t.Helper()

	c := domain.Ceremony{
		Name:                   "Summer Commencement",
		Date:                   time.Now().Add(30 * 24 * time.Hour),
		Venue:                  "Main Hall",
		Capacity:               500,
		BaseTicketsPerGraduate: baseTickets,
		IsActive:               true,
	}
	for _, opt := range opts {
		opt(&c)
	}

	created, err := e.ceremonies.CreateCeremony(context.Background(), c)
	require.NoError(t, err)
	return created
}

func (e *testEnv) registerGraduate(t *testing.T, ceremonyID uint) (domain.Graduate, []domain.Ticket) {
	t.Helper()

	e.students++
	g, tickets, err := e.ceremonies.RegisterGraduate(context.Background(), domain.Graduate{
		CeremonyID:    ceremonyID,
		StudentNumber: fmt.Sprintf("S%05d", e.students),
		StudentName:   fmt.Sprintf("Student %d", e.students),
		DegreeLevel:   domain.DegreeUndergraduate,
		Faculty:       "Science",
		Department:    "Physics",
	})
	require.NoError(t, err)
	return g, tickets
}

func (e *testEnv) graduate(t *testing.T, id uint) domain.Graduate {
	t.Helper()
	g, err := e.repo.GetGraduate(context.Background(), id)
	require.NoError(t, err)
	return g
}

func (e *testEnv) ticket(t *testing.T, id uint) domain.Ticket {
	t.Helper()
	tk, err := e.repo.GetTicket(context.Background(), id)
	require.NoError(t, err)
	return tk
}

func (e *testEnv) payload(t *testing.T, ticket domain.Ticket) string {
	t.Helper()
	p, err := e.codec.Encode(ticket)
	require.NoError(t, err)
	return p
}

func (e *testEnv) scanCode(t *testing.T, ticket domain.Ticket) {
	t.Helper()
	res, err := e.verifier.VerifyByCode(context.Background(), ticket.Code, domain.ScanRequest{ScannerID: 1})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
}

func (e *testEnv) entryLogs(t *testing.T, ceremonyID uint) []domain.EntryLog {
	t.Helper()
	logs, err := e.repo.ListEntryLogs(context.Background(), domain.EntryLogFilter{CeremonyID: ceremonyID})
	require.NoError(t, err)
	return logs
}

func uintString(v uint) string {
	return fmt.Sprintf("%d", v)
}

func listFiles(t *testing.T, store *artifact.LocalStore) []string {
	t.Helper()

	var files []string
	err := filepath.WalkDir(store.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}
