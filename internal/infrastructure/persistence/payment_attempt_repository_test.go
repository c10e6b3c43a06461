package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockPaymentAttemptRepository creates a GormPaymentAttemptRepository with a mocked SQL connection
func newMockPaymentAttemptRepository(t *testing.T) (*GormPaymentAttemptRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPaymentAttemptRepository(gormDB), mock, mockDB
}

func TestGormPaymentAttemptRepository_Claim(t *testing.T) {
	t.Run("claims a pending attempt", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentAttemptRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`UPDATE "payment_attempts" SET "status"=\$1,"updated_at"=\$2 WHERE id = \$3 AND status IN \(\$4,\$5\)`).
			WithArgs(trade.AttemptStatusProcessing, sqlmock.AnyArg(), id, trade.AttemptStatusPending, trade.AttemptStatusFailed).
			WillReturnResult(sqlmock.NewResult(0, 1))

		claimed, err := repo.Claim(context.Background(), id)

		assert.NoError(t, err)
		assert.True(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses the race when no row matches", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentAttemptRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`UPDATE "payment_attempts" SET .* WHERE id = \$3 AND status IN`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		claimed, err := repo.Claim(context.Background(), id)

		assert.NoError(t, err)
		assert.False(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates database errors", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentAttemptRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "payment_attempts"`).
			WillReturnError(errors.New("connection reset"))

		claimed, err := repo.Claim(context.Background(), uuid.New())

		assert.Error(t, err)
		assert.False(t, claimed)
	})
}

func TestGormPaymentAttemptRepository_RecordFailure(t *testing.T) {
	repo, mock, mockDB := newMockPaymentAttemptRepository(t)
	defer mockDB.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE "payment_attempts" SET "failure_reason"=\$1,"updated_at"=\$2 WHERE id = \$3 AND status IN \(\$4,\$5\)`).
		WithArgs("insufficient stock", sqlmock.AnyArg(), id, trade.AttemptStatusPending, trade.AttemptStatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordFailure(context.Background(), id, "insufficient stock")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
