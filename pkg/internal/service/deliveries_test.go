package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	appctx "github.com/yeisme/studyvault/pkg/context"
	"github.com/yeisme/studyvault/pkg/internal/model"
	"github.com/yeisme/studyvault/pkg/internal/types"
)

// TestDeliveryCreate 测试投递创建生成令牌与过期时间.
func TestDeliveryCreate(t *testing.T) {
	ctx, _ := newTestContext(t)
	sender := seedUser(t, ctx, "Sender", "sender@example.com", model.RoleTeacher)
	recipient := seedUser(t, ctx, "Recipient", "recipient@example.com", model.RoleStudent)
	material := seedMaterial(t, ctx, sender.ID, "Linear Algebra Notes")

	svc := NewDeliveryService(ctx)

	delivery, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail,
		&types.DeliverRequest{UserID: recipient.ID, Address: recipient.Email}, CreateOptions{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(delivery.Token) != 64 {
		t.Errorf("expected 64-char hex token, got %d chars", len(delivery.Token))
	}

	if !strings.HasPrefix(delivery.DeliveryID, "dl_") {
		t.Errorf("expected dl_ prefixed delivery id, got %s", delivery.DeliveryID)
	}

	if delivery.Status != model.DeliveryStatusPending {
		t.Errorf("expected pending status, got %s", delivery.Status)
	}

	wantExpiry := time.Now().Add(7 * 24 * time.Hour)
	if diff := delivery.ExpiresAt.Sub(wantExpiry); diff > time.Minute || diff < -time.Minute {
		t.Errorf("expected expiry about 7 days out, got %v", delivery.ExpiresAt)
	}
}

// TestDeliverySelfDelivery 测试不能投递给资料拥有者.
func TestDeliverySelfDelivery(t *testing.T) {
	ctx, _ := newTestContext(t)
	sender := seedUser(t, ctx, "Sender", "sender@example.com", model.RoleTeacher)
	material := seedMaterial(t, ctx, sender.ID, "Notes")

	svc := NewDeliveryService(ctx)

	_, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail,
		&types.DeliverRequest{UserID: sender.ID, Address: sender.Email}, CreateOptions{})
	if !errors.Is(err, ErrSelfDelivery) {
		t.Errorf("expected ErrSelfDelivery, got %v", err)
	}
}

// TestDeliveryDuplicate 测试重复活跃投递被拒绝，取消后允许重投.
func TestDeliveryDuplicate(t *testing.T) {
	ctx, _ := newTestContext(t)
	sender := seedUser(t, ctx, "Sender", "sender@example.com", model.RoleTeacher)
	recipient := seedUser(t, ctx, "Recipient", "recipient@example.com", model.RoleStudent)
	material := seedMaterial(t, ctx, sender.ID, "Notes")

	svc := NewDeliveryService(ctx)
	req := &types.DeliverRequest{UserID: recipient.ID, Address: recipient.Email}

	first, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail, req, CreateOptions{})
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	if _, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail, req, CreateOptions{}); !errors.Is(err, ErrDuplicateDelivery) {
		t.Errorf("expected ErrDuplicateDelivery, got %v", err)
	}

	if _, err := svc.Cancel(first.DeliveryID, sender.ID, false); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if _, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail, req, CreateOptions{}); err != nil {
		t.Errorf("expected re-delivery after cancel to succeed, got %v", err)
	}
}

// TestDeliveryNotFoundTargets 测试资料或接收者不存在.
func TestDeliveryNotFoundTargets(t *testing.T) {
	ctx, _ := newTestContext(t)
	sender := seedUser(t, ctx, "Sender", "sender@example.com", model.RoleTeacher)
	material := seedMaterial(t, ctx, sender.ID, "Notes")

	svc := NewDeliveryService(ctx)

	_, err := svc.Create(9999, sender.ID, model.DeliveryMethodEmail,
		&types.DeliverRequest{UserID: sender.ID, Address: "a@b.c"}, CreateOptions{})
	if !errors.Is(err, ErrMaterialNotFound) {
		t.Errorf("expected ErrMaterialNotFound, got %v", err)
	}

	_, err = svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail,
		&types.DeliverRequest{UserID: 9999, Address: "a@b.c"}, CreateOptions{})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

// TestDeliveryDispatchEmail 测试邮件外发成功推进到 delivered 且链接携带令牌.
func TestDeliveryDispatchEmail(t *testing.T) {
	ctx, console := newTestContext(t)
	sender := seedUser(t, ctx, "Sender", "sender@example.com", model.RoleTeacher)
	recipient := seedUser(t, ctx, "Recipient", "recipient@example.com", model.RoleStudent)
	material := seedMaterial(t, ctx, sender.ID, "Calculus Cheatsheet")

	svc := NewDeliveryService(ctx)

	delivery, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail,
		&types.DeliverRequest{UserID: recipient.ID, Address: recipient.Email}, CreateOptions{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Dispatch(delivery); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if delivery.Status != model.DeliveryStatusDelivered {
		t.Errorf("expected delivered status, got %s", delivery.Status)
	}

	mails := console.SentMails()
	if len(mails) != 1 {
		t.Fatalf("expected 1 sent mail, got %d", len(mails))
	}

	if !strings.Contains(mails[0].PlainText, delivery.Token) {
		t.Error("expected download link with token in mail body")
	}
}

// TestDeliveryDispatchWhatsApp 测试 WhatsApp 外发走短信通道.
func TestDeliveryDispatchWhatsApp(t *testing.T) {
	ctx, console := newTestContext(t)
	sender := seedUser(t, ctx, "Sender", "sender@example.com", model.RoleTeacher)
	recipient := seedUser(t, ctx, "Recipient", "recipient@example.com", model.RoleStudent)
	material := seedMaterial(t, ctx, sender.ID, "Notes")

	svc := NewDeliveryService(ctx)

	delivery, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodWhatsApp,
		&types.DeliverRequest{UserID: recipient.ID, Address: "+8613800138000"}, CreateOptions{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Dispatch(delivery); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	texts := console.SentTexts()
	if len(texts) != 1 {
		t.Fatalf("expected 1 sent text, got %d", len(texts))
	}

	if !texts[0].WhatsApp {
		t.Error("expected whatsapp flag on sent text")
	}

	if !strings.Contains(texts[0].Body, delivery.Token) {
		t.Error("expected download link with token in text body")
	}
}

// TestResolveDownload 测试令牌下载计数与送达标记.
func TestResolveDownload(t *testing.T) {
	ctx, _ := newTestContext(t)
	sender := seedUser(t, ctx, "Sender", "sender@example.com", model.RoleTeacher)
	recipient := seedUser(t, ctx, "Recipient", "recipient@example.com", model.RoleStudent)
	material := seedMaterial(t, ctx, sender.ID, "Notes")

	svc := NewDeliveryService(ctx)

	delivery, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail,
		&types.DeliverRequest{UserID: recipient.ID, Address: recipient.Email}, CreateOptions{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	resolved, err := svc.ResolveDownload(material.ID, delivery.Token)
	if err != nil {
		t.Fatalf("ResolveDownload failed: %v", err)
	}

	if resolved.DownloadCount != 1 {
		t.Errorf("expected download count 1, got %d", resolved.DownloadCount)
	}

	if resolved.Status != model.DeliveryStatusDelivered {
		t.Errorf("expected delivered after first download, got %s", resolved.Status)
	}

	// 第二次下载继续计数
	resolved, err = svc.ResolveDownload(material.ID, delivery.Token)
	if err != nil {
		t.Fatalf("second ResolveDownload failed: %v", err)
	}

	if resolved.DownloadCount != 2 {
		t.Errorf("expected download count 2, got %d", resolved.DownloadCount)
	}
}

// TestResolveDownloadRejections 测试无效令牌、资料不匹配与取消状态.
func TestResolveDownloadRejections(t *testing.T) {
	ctx, _ := newTestContext(t)
	sender := seedUser(t, ctx, "Sender", "sender@example.com", model.RoleTeacher)
	recipient := seedUser(t, ctx, "Recipient", "recipient@example.com", model.RoleStudent)
	material := seedMaterial(t, ctx, sender.ID, "Notes")
	other := seedMaterial(t, ctx, sender.ID, "Other Notes")

	svc := NewDeliveryService(ctx)

	delivery, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail,
		&types.DeliverRequest{UserID: recipient.ID, Address: recipient.Email}, CreateOptions{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.ResolveDownload(material.ID, "deadbeef"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for unknown token, got %v", err)
	}

	if _, err := svc.ResolveDownload(other.ID, delivery.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for mismatched material, got %v", err)
	}

	if _, err := svc.Cancel(delivery.DeliveryID, sender.ID, false); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if _, err := svc.ResolveDownload(material.ID, delivery.Token); !errors.Is(err, ErrDeliveryCancelled) {
		t.Errorf("expected ErrDeliveryCancelled, got %v", err)
	}
}

// TestResolveDownloadExpired 测试过期令牌被惰性标记为 expired.
func TestResolveDownloadExpired(t *testing.T) {
	ctx, _ := newTestContext(t)
	sender := seedUser(t, ctx, "Sender", "sender@example.com", model.RoleTeacher)
	recipient := seedUser(t, ctx, "Recipient", "recipient@example.com", model.RoleStudent)
	material := seedMaterial(t, ctx, sender.ID, "Notes")

	svc := NewDeliveryService(ctx)

	delivery, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail,
		&types.DeliverRequest{UserID: recipient.ID, Address: recipient.Email}, CreateOptions{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 把过期时间拨到过去
	if err := appctx.GetDBClient(ctx).Model(&model.Delivery{}).
		Where("id = ?", delivery.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("failed to backdate expiry: %v", err)
	}

	if _, err := svc.ResolveDownload(material.ID, delivery.Token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}

	stored, err := svc.GetByDeliveryID(delivery.DeliveryID)
	if err != nil {
		t.Fatalf("GetByDeliveryID failed: %v", err)
	}

	if stored.Status != model.DeliveryStatusExpired {
		t.Errorf("expected expired status after lazy check, got %s", stored.Status)
	}

	// expired 为终态，再次下载仍被拒绝
	if _, err := svc.ResolveDownload(material.ID, delivery.Token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired on terminal delivery, got %v", err)
	}
}

// TestSweepExpired 测试批量过期清理.
func TestSweepExpired(t *testing.T) {
	ctx, _ := newTestContext(t)
	sender := seedUser(t, ctx, "Sender", "sender@example.com", model.RoleTeacher)
	r1 := seedUser(t, ctx, "R1", "r1@example.com", model.RoleStudent)
	r2 := seedUser(t, ctx, "R2", "r2@example.com", model.RoleStudent)
	material := seedMaterial(t, ctx, sender.ID, "Notes")

	svc := NewDeliveryService(ctx)

	d1, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail,
		&types.DeliverRequest{UserID: r1.ID, Address: r1.Email}, CreateOptions{})
	if err != nil {
		t.Fatalf("Create d1 failed: %v", err)
	}

	if _, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail,
		&types.DeliverRequest{UserID: r2.ID, Address: r2.Email}, CreateOptions{}); err != nil {
		t.Fatalf("Create d2 failed: %v", err)
	}

	if err := appctx.GetDBClient(ctx).Model(&model.Delivery{}).
		Where("id = ?", d1.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("failed to backdate expiry: %v", err)
	}

	swept, err := svc.SweepExpired()
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}

	if swept != 1 {
		t.Errorf("expected 1 swept delivery, got %d", swept)
	}

	stored, err := svc.GetByDeliveryID(d1.DeliveryID)
	if err != nil {
		t.Fatalf("GetByDeliveryID failed: %v", err)
	}

	if stored.Status != model.DeliveryStatusExpired {
		t.Errorf("expected expired status, got %s", stored.Status)
	}
}

// TestDeliveryListScope 测试非管理员只能看到与自己相关的投递.
func TestDeliveryListScope(t *testing.T) {
	ctx, _ := newTestContext(t)
	sender := seedUser(t, ctx, "Sender", "sender@example.com", model.RoleTeacher)
	recipient := seedUser(t, ctx, "Recipient", "recipient@example.com", model.RoleStudent)
	outsider := seedUser(t, ctx, "Outsider", "outsider@example.com", model.RoleStudent)
	material := seedMaterial(t, ctx, sender.ID, "Notes")

	svc := NewDeliveryService(ctx)

	if _, err := svc.Create(material.ID, sender.ID, model.DeliveryMethodEmail,
		&types.DeliverRequest{UserID: recipient.ID, Address: recipient.Email}, CreateOptions{}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	q := &types.DeliveryListQuery{}

	_, total, err := svc.List(q, outsider.ID, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if total != 0 {
		t.Errorf("expected outsider to see 0 deliveries, got %d", total)
	}

	_, total, err = svc.List(q, recipient.ID, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if total != 1 {
		t.Errorf("expected recipient to see 1 delivery, got %d", total)
	}

	_, total, err = svc.List(q, outsider.ID, true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if total != 1 {
		t.Errorf("expected admin to see 1 delivery, got %d", total)
	}
}
