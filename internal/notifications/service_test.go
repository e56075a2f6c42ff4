package notifications

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gearvault/gearvault-backend/pkg/db/models"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func seedNotification(t *testing.T, conn *gorm.DB, title string, read bool) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		ID:      uuid.New(),
		Type:    enums.NotificationTypeLowStock,
		Title:   title,
		Message: "stock is running out",
	}
	if read {
		now := time.Now().UTC()
		notification.ReadAt = &now
	}
	if err := conn.Create(notification).Error; err != nil {
		t.Fatalf("create notification: %v", err)
	}
	return notification
}

func TestListUnreadOnly(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedNotification(t, conn, "unread one", false)
	seedNotification(t, conn, "unread two", false)
	seedNotification(t, conn, "already read", true)

	all, err := svc.List(ctx, ListParams{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all.Items) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(all.Items))
	}

	unread, err := svc.List(ctx, ListParams{UnreadOnly: true})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread.Items) != 2 {
		t.Fatalf("expected 2 unread, got %d", len(unread.Items))
	}
	for _, item := range unread.Items {
		if item.ReadAt != nil {
			t.Fatalf("read notification %q leaked into unread listing", item.Title)
		}
	}
}

func TestMarkRead(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	notification := seedNotification(t, conn, "restock the keyboards", false)

	if err := svc.MarkRead(ctx, notification.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	var stored models.Notification
	if err := conn.First(&stored, "id = ?", notification.ID).Error; err != nil {
		t.Fatalf("reload notification: %v", err)
	}
	if stored.ReadAt == nil {
		t.Fatal("expected read_at to be set")
	}

	// Marking an already-read notification stays a no-op, not an error.
	if err := svc.MarkRead(ctx, notification.ID); err != nil {
		t.Fatalf("second mark read: %v", err)
	}

	err := svc.MarkRead(ctx, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedNotification(t, conn, "one", false)
	seedNotification(t, conn, "two", false)
	seedNotification(t, conn, "three", true)

	count, err := svc.MarkAllRead(ctx)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 updated, got %d", count)
	}

	var unread int64
	if err := conn.Model(&models.Notification{}).Where("read_at IS NULL").Count(&unread).Error; err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected no unread left, got %d", unread)
	}
}

func TestNotifyLowStock(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := &models.Product{ID: uuid.New(), Name: "Nimbus X2 Mouse"}

	if err := svc.NotifyLowStock(ctx, nil, product, 2); err != nil {
		t.Fatalf("notify: %v", err)
	}

	var stored models.Notification
	if err := conn.First(&stored, "product_id = ?", product.ID).Error; err != nil {
		t.Fatalf("load notification: %v", err)
	}
	if stored.Type != enums.NotificationTypeLowStock {
		t.Fatalf("unexpected type %s", stored.Type)
	}
	if !strings.Contains(stored.Message, "2 unit(s)") {
		t.Fatalf("unexpected message %q", stored.Message)
	}
}
