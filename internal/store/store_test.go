package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"balepos/internal/checkout"
	"balepos/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}

	return New(gdb, zap.NewNop(), nil), mock
}

func TestListBales(t *testing.T) {
	s, mock := setupMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "status", "cost", "item_count"}).
		AddRow(1, "Bale A", "On Sale", 5000.0, 100).
		AddRow(2, "Bale B", "Ordered", 3000.0, 50)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `bales`")).WillReturnRows(rows)

	bales, err := s.ListBales(context.Background())
	assert.NoError(t, err)
	assert.Len(t, bales, 2)
	assert.Equal(t, "Bale A", bales[0].Name)
	assert.Equal(t, models.BaleOnSale, bales[0].Status)
	assert.Equal(t, 50, bales[1].ItemCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDevice(t *testing.T) {
	s, mock := setupMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "device_id", "status", "label"}).
		AddRow(1, "BALE-DEADBEEF", "approved", "shop console")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `devices` WHERE device_id = ?")).
		WithArgs("BALE-DEADBEEF", 1).
		WillReturnRows(rows)

	d, err := s.GetDevice(context.Background(), "BALE-DEADBEEF")
	assert.NoError(t, err)
	assert.Equal(t, models.DeviceApproved, d.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDeviceUnknown(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `devices` WHERE device_id = ?")).
		WithArgs("nope", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetDevice(context.Background(), "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPendingOutbox(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `outbox_entries` WHERE sent_at IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(7))

	n, err := s.PendingOutbox(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

// A mirror failure must only bump the attempt counter; the row stays put
// and nothing local changes.
func TestFlushOnceFailureKeepsRow(t *testing.T) {
	s, mock := setupMockStore(t)

	created := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `outbox_entries` WHERE sent_at IS NULL AND attempts < ?")).
		WithArgs(3, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "collection", "op", "record_id", "payload", "attempts", "created_at"}).
			AddRow(11, "bales", "upsert", "1", `{"id":1}`, 0, created))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `outbox_entries` SET `attempts`=?")).
		WithArgs(1, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	f := NewFlusher(s, failingSyncer{}, zap.NewNop(), time.Second)
	f.FlushOnce(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Deleting an order that consumed a VIP ticket must give exactly one ticket
// back, and the flag must come off in the same transaction so no later path
// can return it again.
func TestDeleteOrderReturnsVIPTicketOnce(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `orders` WHERE `orders`.`id` = ?")).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "session_id", "customer_id", "username", "product_id",
			"quantity", "total_price", "is_freebie", "used_vip_ticket", "stock_returned",
		}).AddRow(7, 4, 5, "Jelly", 3, 2, 200.0, false, true, true))

	// Ticket return: lock the customer, bump the balance once, drop the flag.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `customers` WHERE `customers`.`id` = ?")).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "is_vip", "vip_tickets", "is_blacklisted"}).
			AddRow(5, "jelly", true, 2, false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `customers` SET")).
		WithArgs("jelly", true, 3, false, sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `orders` SET `used_vip_ticket`=?")).
		WithArgs(false, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `outbox_entries`")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`,`bale_id` FROM `products` WHERE `products`.`id` = ?")).
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "bale_id"}).AddRow(3, 2))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `order_logs` WHERE order_id = ?")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `orders` WHERE `orders`.`id` = ?")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `outbox_entries`")).
		WillReturnResult(sqlmock.NewResult(2, 1))

	// Bale recompute: no orders left, On Sale stays On Sale, no write.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `bales` WHERE `bales`.`id` = ?")).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "cost", "item_count"}).
			AddRow(2, "Bale B", "On Sale", 3000.0, 50))
	mock.ExpectQuery(regexp.QuoteMeta("JOIN products ON products.id = orders.product_id")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	err := s.DeleteOrder(context.Background(), 7)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Once the flag is cleared the return is a no-op: no customer read, no
// balance write.
func TestReturnVIPTicketSkipsClearedFlag(t *testing.T) {
	s, mock := setupMockStore(t)

	o := &models.Order{ID: 7, CustomerID: 5, UsedVIPTicket: false}
	var changes []Change
	err := s.returnVIPTicket(s.db, &changes, o)

	assert.NoError(t, err)
	assert.Empty(t, changes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Unwinding orders whose ticket and stock already came back touches neither
// again, and the rebuilt cart starts from a clean NONE discount.
func TestEditCustomerOrderRebuildsCart(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `orders` WHERE session_id = ? AND LOWER(username) = ?")).
		WithArgs(4, "jelly").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "session_id", "customer_id", "username", "product_id",
			"quantity", "total_price", "is_freebie", "used_vip_ticket", "stock_returned",
		}).AddRow(7, 4, 5, "Jelly", 3, 2, 200.0, false, false, true))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `products` WHERE `products`.`id` = ?")).
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sku", "name", "bale_id", "selling_price"}).
			AddRow(3, "LIVE-2-10000-0", "Bale B @ 100.00", 2, 100.0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `bales` WHERE `bales`.`id` = ?")).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "cost", "item_count"}).
			AddRow(2, "Bale B", "On Sale", 3000.0, 50))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `order_logs` WHERE order_id = ?")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `orders` WHERE `orders`.`id` = ?")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `outbox_entries`")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `bales` WHERE `bales`.`id` = ?")).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "cost", "item_count"}).
			AddRow(2, "Bale B", "On Sale", 3000.0, 50))
	mock.ExpectQuery(regexp.QuoteMeta("JOIN products ON products.id = orders.product_id")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	cart, err := s.EditCustomerOrder(context.Background(), 4, "Jelly")
	assert.NoError(t, err)
	assert.Equal(t, checkout.DiscountNone, cart.DiscountType)
	assert.False(t, cart.UseVIPTicket)
	assert.Len(t, cart.Lines, 1)
	assert.Equal(t, uint(2), cart.Lines[0].BaleID)
	assert.Equal(t, 100.0, cart.Lines[0].Price)
	assert.Equal(t, 2, cart.Lines[0].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// A delivered row gets its sent_at stamp so the next tick skips it.
func TestFlushOnceStampsSentAt(t *testing.T) {
	s, mock := setupMockStore(t)

	created := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `outbox_entries` WHERE sent_at IS NULL AND attempts < ?")).
		WithArgs(3, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "collection", "op", "record_id", "payload", "attempts", "created_at"}).
			AddRow(11, "bales", "upsert", "1", `{"id":1}`, 0, created))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `outbox_entries` SET `sent_at`=?")).
		WithArgs(sqlmock.AnyArg(), 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	f := NewFlusher(s, okSyncer{}, zap.NewNop(), time.Second)
	f.FlushOnce(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

// A failed bookkeeping write is logged and skipped, never a crash.
func TestFlushOnceSurvivesBookkeepingError(t *testing.T) {
	s, mock := setupMockStore(t)

	created := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `outbox_entries` WHERE sent_at IS NULL AND attempts < ?")).
		WithArgs(3, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "collection", "op", "record_id", "payload", "attempts", "created_at"}).
			AddRow(11, "bales", "upsert", "1", `{"id":1}`, 0, created))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `outbox_entries` SET `attempts`=?")).
		WithArgs(1, 11).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	f := NewFlusher(s, failingSyncer{}, zap.NewNop(), time.Second)
	f.FlushOnce(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

type okSyncer struct{}

func (okSyncer) Enabled() bool                                { return true }
func (okSyncer) Upsert(context.Context, string, []byte) error { return nil }
func (okSyncer) Delete(context.Context, string, string) error { return nil }

type failingSyncer struct{}

func (failingSyncer) Enabled() bool { return true }
func (failingSyncer) Upsert(context.Context, string, []byte) error {
	return assert.AnError
}
func (failingSyncer) Delete(context.Context, string, string) error {
	return assert.AnError
}
