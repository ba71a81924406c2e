package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codewithbrain/internal/models"
)

type fakeAccounts struct {
	created  []*models.User
	password string
	err      error
}

func (f *fakeAccounts) Create(ctx context.Context, u *models.User, password string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u.ID = uuid.New()
	f.created = append(f.created, u)
	f.password = password
	return u, nil
}

var seedCategorySQL = regexp.QuoteMeta(`INSERT INTO categories (name, slug, description)`)

func TestSeedCreatesAdminOnEmptyDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(seedCategorySQL).WillReturnResult(sqlmock.NewResult(0, 1))

	accounts := &fakeAccounts{}
	require.NoError(t, Seed(context.Background(), db, accounts))

	require.Len(t, accounts.created, 1)
	assert.Equal(t, SeedAdminUsername, accounts.created[0].Username)
	assert.Equal(t, models.RoleAdmin, accounts.created[0].Role)
	assert.Equal(t, SeedAdminPassword, accounts.password)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedSkipsExistingUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(seedCategorySQL).WillReturnResult(sqlmock.NewResult(0, 0))

	accounts := &fakeAccounts{}
	require.NoError(t, Seed(context.Background(), db, accounts))
	assert.Empty(t, accounts.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedPropagatesCreateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err = Seed(context.Background(), db, &fakeAccounts{err: errors.New("duplicate")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed insert admin")
}

// TestSeedIdempotent runs Seed twice against a real database.
func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	accounts := &fakeAccounts{}
	ctx := context.Background()
	var before int
	db.QueryRow("SELECT COUNT(*) FROM users").Scan(&before)

	if err := Seed(ctx, db, accounts); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(ctx, db, accounts); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	// The fake never inserts rows, so the admin is requested at most once
	// per call and only when the table started empty.
	if before > 0 && len(accounts.created) != 0 {
		t.Errorf("Seed created %d users on a populated table", len(accounts.created))
	}

	var catCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&catCount); err != nil {
		t.Fatalf("count categories: %v", err)
	}
	if catCount < 1 {
		t.Errorf("expected at least 1 category, got %d", catCount)
	}
}
