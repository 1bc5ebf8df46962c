package service

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/yeisme/studyvault/pkg/configs"
	"github.com/yeisme/studyvault/pkg/internal/model"
	"github.com/yeisme/studyvault/pkg/internal/types"
)

// newFileHeader 构造 multipart 文件头用于上传测试.
func newFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}

	if _, err := fw.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	reader := multipart.NewReader(&buf, mw.Boundary())

	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("failed to read form: %v", err)
	}

	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["file"][0]
}

// TestMaterialCreateAndGet 测试创建与缓存读取.
func TestMaterialCreateAndGet(t *testing.T) {
	ctx, _ := newTestContext(t)
	owner := seedUser(t, ctx, "Owner", "owner@example.com", model.RoleTeacher)

	svc := NewMaterialService(ctx)

	created, err := svc.Create(owner.ID, &types.CreateMaterialRequest{
		Title:   "Linear Algebra Notes",
		Subject: "math",
		Price:   500,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 第二次读取命中缓存，结果一致
	for i := 0; i < 2; i++ {
		got, err := svc.GetByID(created.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}

		if got.Title != "Linear Algebra Notes" || got.OwnerID != owner.ID {
			t.Errorf("unexpected material: %+v", got)
		}
	}

	if _, err := svc.GetByID(9999); !errors.Is(err, ErrMaterialNotFound) {
		t.Errorf("expected ErrMaterialNotFound, got %v", err)
	}
}

// TestMaterialUpdatePermissions 测试更新权限：所有者和管理员可改，他人被拒.
func TestMaterialUpdatePermissions(t *testing.T) {
	ctx, _ := newTestContext(t)
	owner := seedUser(t, ctx, "Owner", "owner@example.com", model.RoleTeacher)
	other := seedUser(t, ctx, "Other", "other@example.com", model.RoleTeacher)
	material := seedMaterial(t, ctx, owner.ID, "Notes")

	svc := NewMaterialService(ctx)
	title := "Updated Notes"

	if _, err := svc.Update(material.ID, other.ID, false, &types.UpdateMaterialRequest{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-owner, got %v", err)
	}

	updated, err := svc.Update(material.ID, owner.ID, false, &types.UpdateMaterialRequest{Title: &title})
	if err != nil {
		t.Fatalf("owner Update failed: %v", err)
	}

	got, err := svc.GetByID(updated.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Title != title {
		t.Errorf("expected updated title, got %s", got.Title)
	}

	// 管理员可以更新他人资料
	if _, err := svc.Update(material.ID, other.ID, true, &types.UpdateMaterialRequest{Title: &title}); err != nil {
		t.Errorf("admin Update failed: %v", err)
	}
}

// TestMaterialListFilters 测试列表过滤.
func TestMaterialListFilters(t *testing.T) {
	ctx, _ := newTestContext(t)
	owner := seedUser(t, ctx, "Owner", "owner@example.com", model.RoleTeacher)
	other := seedUser(t, ctx, "Other", "other@example.com", model.RoleTeacher)

	seedMaterial(t, ctx, owner.ID, "Linear Algebra Notes")
	seedMaterial(t, ctx, other.ID, "Chemistry Lab Guide")

	svc := NewMaterialService(ctx)

	_, total, err := svc.List(&types.MaterialListQuery{OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if total != 1 {
		t.Errorf("expected 1 material for owner filter, got %d", total)
	}

	_, total, err = svc.List(&types.MaterialListQuery{Search: "Algebra"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if total != 1 {
		t.Errorf("expected 1 material for search filter, got %d", total)
	}
}

// TestMaterialUploadLocal 测试附件落本地磁盘与大小上限.
func TestMaterialUploadLocal(t *testing.T) {
	ctx, _ := newTestContext(t)
	owner := seedUser(t, ctx, "Owner", "owner@example.com", model.RoleTeacher)
	material := seedMaterial(t, ctx, owner.ID, "Notes")

	uploadDir := t.TempDir()
	oldDir := configs.GetConfig().Server.UploadDir
	configs.GetConfig().Server.UploadDir = uploadDir

	t.Cleanup(func() { configs.GetConfig().Server.UploadDir = oldDir })

	svc := NewMaterialService(ctx)

	content := []byte("%PDF-1.4 fake content")
	header := newFileHeader(t, "notes.pdf", content)

	updated, err := svc.UploadFile(material.ID, owner.ID, false, header)
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	got, err := svc.GetByID(updated.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.FileName != "notes.pdf" || got.FileSize != int64(len(content)) {
		t.Errorf("unexpected attachment metadata: %+v", got)
	}

	rc, err := svc.OpenFile(got)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("failed to read attachment: %v", err)
	}

	if !bytes.Equal(data, content) {
		t.Error("attachment content mismatch")
	}

	if _, err := os.Stat(filepath.Join(uploadDir, "1", "notes.pdf")); err != nil {
		t.Errorf("expected attachment on disk: %v", err)
	}
}

// TestMaterialUploadTooLarge 测试超过上限的附件被拒.
func TestMaterialUploadTooLarge(t *testing.T) {
	ctx, _ := newTestContext(t)
	owner := seedUser(t, ctx, "Owner", "owner@example.com", model.RoleTeacher)
	material := seedMaterial(t, ctx, owner.ID, "Notes")

	oldMax := configs.GetConfig().Server.MaxUploadMB
	configs.GetConfig().Server.MaxUploadMB = 1

	t.Cleanup(func() { configs.GetConfig().Server.MaxUploadMB = oldMax })

	svc := NewMaterialService(ctx)
	header := newFileHeader(t, "big.bin", bytes.Repeat([]byte("x"), 2<<20))

	if _, err := svc.UploadFile(material.ID, owner.ID, false, header); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

// TestMaterialDelete 测试删除后查询不到.
func TestMaterialDelete(t *testing.T) {
	ctx, _ := newTestContext(t)
	owner := seedUser(t, ctx, "Owner", "owner@example.com", model.RoleTeacher)
	material := seedMaterial(t, ctx, owner.ID, "Notes")

	svc := NewMaterialService(ctx)

	if err := svc.Delete(material.ID, owner.ID, false); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := svc.GetByID(material.ID); !errors.Is(err, ErrMaterialNotFound) {
		t.Errorf("expected ErrMaterialNotFound after delete, got %v", err)
	}
}
