package db_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gradpass/ceremony-tickets/internal/db"
	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/pkg/artifact"
	"github.com/gradpass/ceremony-tickets/internal/pkg/gatefeed"
	"github.com/gradpass/ceremony-tickets/internal/pkg/qrcodec"
	"github.com/gradpass/ceremony-tickets/internal/repository"
	"github.com/gradpass/ceremony-tickets/internal/repository/dao"
	"github.com/gradpass/ceremony-tickets/internal/service"
)

// startPostgres runs a throwaway postgres container, skipping the test when
// docker is not reachable.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in -short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=tickets",
			"POSTGRES_PASSWORD=tickets",
			"POSTGRES_DB=tickets",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	_ = resource.Expire(300)

	url := fmt.Sprintf("postgres://tickets:tickets@%s/tickets?sslmode=disable", resource.GetHostPort("5432/tcp"))

	var gdb *gorm.DB
	pool.MaxWait = 90 * time.Second
	require.NoError(t, pool.Retry(func() error {
		var err error
		gdb, err = db.OpenPostgresWithURL(url)
		return err
	}))
	require.NoError(t, dao.InitTables(gdb))

	return gdb
}

func TestPostgres_ConcurrentScansAdmitOnce(t *testing.T) {
	gdb := startPostgres(t)
	ctx := context.Background()

	repo := repository.NewTicketingRepository(dao.NewTicketingDAO(gdb))
	codec, err := qrcodec.New("postgres-integration-secret", 64)
	require.NoError(t, err)
	store, err := artifact.NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	tickets := service.NewTicketService(repo, codec, store, service.IssuanceConfig{})
	ceremonies := service.NewCeremonyService(repo, tickets)
	verifier := service.NewVerificationService(repo, codec, gatefeed.Discard{})

	ceremony, err := ceremonies.CreateCeremony(ctx, domain.Ceremony{
		Name:                   "Integration Commencement",
		Date:                   time.Now().Add(72 * time.Hour),
		Venue:                  "Hall",
		Capacity:               100,
		BaseTicketsPerGraduate: 1,
		IsActive:               true,
	})
	require.NoError(t, err)

	graduate, issued, err := ceremonies.RegisterGraduate(ctx, domain.Graduate{
		CeremonyID:    ceremony.ID,
		StudentNumber: "PG-0001",
		StudentName:   "Concurrent Graduate",
		DegreeLevel:   domain.DegreePhD,
		Faculty:       "Science",
		Department:    "Chemistry",
	})
	require.NoError(t, err)
	require.Len(t, issued, 1)

	const scanners = 16
	results := make([]domain.VerificationResult, scanners)
	errs := make([]error, scanners)

	var wg sync.WaitGroup
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = verifier.VerifyByCode(ctx, issued[0].Code, domain.ScanRequest{ScannerID: uint(i + 1)})
		}(i)
	}
	wg.Wait()

	successes := 0
	for i := range results {
		require.NoError(t, errs[i])
		switch results[i].Outcome {
		case domain.OutcomeSuccess:
			successes++
		default:
			assert.Equal(t, domain.OutcomeDuplicate, results[i].Outcome)
		}
	}
	assert.Equal(t, 1, successes)

	reloaded, err := ceremonies.GetGraduate(ctx, graduate.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.TicketsUsed)

	logs, err := verifier.ListEntryLogs(ctx, domain.EntryLogFilter{CeremonyID: ceremony.ID, Limit: 100})
	require.NoError(t, err)
	assert.Len(t, logs, scanners)
}

func TestPostgres_DuplicateStudentNumber(t *testing.T) {
	gdb := startPostgres(t)
	ctx := context.Background()
	d := dao.NewTicketingDAO(gdb)

	ceremony, err := d.InsertCeremony(ctx, dao.Ceremony{
		Name:                   "Unique Commencement",
		Date:                   time.Now().Add(72 * time.Hour),
		Venue:                  "Hall",
		Capacity:               10,
		BaseTicketsPerGraduate: 1,
		IsActive:               true,
	})
	require.NoError(t, err)

	g := dao.Graduate{CeremonyID: ceremony.ID, StudentNumber: "DUP-1", StudentName: "A", DegreeLevel: "PhD"}
	_, err = d.InsertGraduate(ctx, g)
	require.NoError(t, err)

	_, err = d.InsertGraduate(ctx, g)
	assert.ErrorIs(t, err, dao.ErrStudentNumberExists)
}

func TestPostgres_UniqueViolationsAreMatchedByIndex(t *testing.T) {
	gdb := startPostgres(t)
	ctx := context.Background()
	d := dao.NewTicketingDAO(gdb)

	ceremony, err := d.InsertCeremony(ctx, dao.Ceremony{
		Name:                   "Index Commencement",
		Date:                   time.Now().Add(72 * time.Hour),
		Venue:                  "Hall",
		Capacity:               10,
		BaseTicketsPerGraduate: 1,
		IsActive:               true,
	})
	require.NoError(t, err)
	graduate, err := d.InsertGraduate(ctx, dao.Graduate{CeremonyID: ceremony.ID, StudentNumber: "IDX-1", StudentName: "A", DegreeLevel: "PhD"})
	require.NoError(t, err)

	ticket := dao.Ticket{
		GraduateID: graduate.ID,
		CeremonyID: ceremony.ID,
		Code:       "PGCODE0001",
		Type:       string(domain.TicketBase),
		Status:     string(domain.TicketActive),
	}
	first, err := d.InsertTicket(ctx, ticket)
	require.NoError(t, err)

	_, err = d.InsertTicket(ctx, ticket)
	assert.ErrorIs(t, err, dao.ErrTicketCodeExists)

	samePrimaryKey := ticket
	samePrimaryKey.ID = first.ID
	samePrimaryKey.Code = "PGCODE0002"
	_, err = d.InsertTicket(ctx, samePrimaryKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, dao.ErrTicketCodeExists)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, pgerrcode.UniqueViolation, pgErr.Code)
}
