package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/domain/booking"
	"github.com/cetler74/dbcars-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func pendingBooking(t *testing.T, couponID *uuid.UUID) *booking.Booking {
	t.Helper()
	iv, err := domain.NewInterval(base, base.Add(72*time.Hour))
	require.NoError(t, err)
	b, err := booking.NewBooking(booking.NewParams{
		VehicleID:  uuid.New(),
		SubunitID:  uuid.New(),
		CustomerID: uuid.New(),
		Period:     iv,
		Price:      booking.NewPrice(30000, 0, 3000),
		CouponID:   couponID,
		CouponCode: "SAVE10",
	})
	require.NoError(t, err)
	return b
}

func TestUpdateStatus_ExhaustedCouponRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewBookingRepository(db)

	couponID := uuid.New()
	b := pendingBooking(t, &couponID)
	consume, err := b.TransitionTo(booking.StatusConfirmed)
	require.NoError(t, err)
	require.True(t, consume)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE coupons SET usage_count = usage_count \+ 1 WHERE id = \$1 AND is_active = \$2 AND \(usage_limit IS NULL OR usage_count < usage_limit\)`).
		WithArgs(couponID, true).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.UpdateStatus(context.Background(), b, consume)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_ConsumesInSameTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewBookingRepository(db)

	couponID := uuid.New()
	b := pendingBooking(t, &couponID)
	consume, err := b.TransitionTo(booking.StatusConfirmed)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE coupons SET usage_count = usage_count \+ 1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateStatus(context.Background(), b, consume))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_VersionMismatchSkipsCoupon(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewBookingRepository(db)

	couponID := uuid.New()
	b := pendingBooking(t, &couponID)
	consume, err := b.TransitionTo(booking.StatusConfirmed)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.UpdateStatus(context.Background(), b, consume)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfFree_ExclusionViolationIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewBookingRepository(db)
	b := pendingBooking(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "vehicle_subunits" WHERE id = \$1 AND vehicle_id = \$2.* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vehicle_id", "license_plate", "status", "created_at", "updated_at"}).
			AddRow(b.SubunitID(), b.VehicleID(), "AA-00-AA", "available", base, base))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "availability_blocks"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO "bookings"`).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"})
	mock.ExpectRollback()

	err := repo.InsertIfFree(context.Background(), b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.True(t, domain.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfFree_SerializationFailureIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewBookingRepository(db)
	b := pendingBooking(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "vehicle_subunits"`).
		WillReturnError(&pgconn.PgError{Code: "40P01"})
	mock.ExpectRollback()

	err := repo.InsertIfFree(context.Background(), b)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
