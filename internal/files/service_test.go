package files

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amamiya-dev/file-bed/cache"
	"github.com/amamiya-dev/file-bed/database"
	"github.com/amamiya-dev/file-bed/database/models"
	filerepo "github.com/amamiya-dev/file-bed/database/repo/files"
	tagrepo "github.com/amamiya-dev/file-bed/database/repo/tags"
	"github.com/amamiya-dev/file-bed/internal/apperr"
	"github.com/amamiya-dev/file-bed/internal/tags"
	"github.com/amamiya-dev/file-bed/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testProvider 测试数据库提供者
type testProvider struct {
	db *gorm.DB
}

func (p *testProvider) DB() *gorm.DB { return p.db }

func (p *testProvider) WithContext(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx)
}

func (p *testProvider) Transaction(fn database.TxFunc) error {
	return p.db.Transaction(fn)
}

func (p *testProvider) TransactionWithContext(ctx context.Context, fn database.TxFunc) error {
	return p.db.WithContext(ctx).Transaction(fn)
}

func (p *testProvider) AutoMigrate(models ...interface{}) error {
	return p.db.AutoMigrate(models...)
}

func (p *testProvider) SQLDB() (*sql.DB, error) { return p.db.DB() }

func (p *testProvider) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (p *testProvider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *testProvider) Name() string { return "sqlite" }

type serviceFixture struct {
	service    *Service
	db         *gorm.DB
	storageDir string
}

func setupService(t *testing.T) *serviceFixture {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.AllModels()...))

	provider := &testProvider{db: db}

	storageDir := t.TempDir()
	localStorage, err := storage.NewLocalStorage(storageDir)
	require.NoError(t, err)

	memCache := cache.NewMemory()
	t.Cleanup(func() { _ = memCache.Close() })

	tagService := tags.NewService(tagrepo.NewRepository(provider), memCache, time.Minute)
	fileService := NewService(filerepo.NewRepository(provider), tagService, localStorage, 10<<20)

	return &serviceFixture{service: fileService, db: db, storageDir: storageDir}
}

func (f *serviceFixture) createUser(t *testing.T, email string) *models.User {
	user := &models.User{Name: "Test User", Email: email, Password: "hash"}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *serviceFixture) storedFileCount(t *testing.T) int {
	entries, err := os.ReadDir(f.storageDir)
	require.NoError(t, err)
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			count++
		}
	}
	return count
}

// makeFileHeader 构造一个内存中的 multipart 文件
func makeFileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	headers := form.File["file"]
	require.Len(t, headers, 1)
	return headers[0]
}

// --- 测试 Upload ---

func TestService_Upload_Success(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	user := f.createUser(t, "upload@example.com")

	header := makeFileHeader(t, "photo.png", "image/png", []byte("png-bytes"))
	result, err := f.service.Upload(ctx, user.ID, header, []string{"holiday", " beach ", "holiday"})
	require.NoError(t, err)

	assert.NotZero(t, result.File.ID)
	assert.Len(t, result.File.UUID, 16)
	assert.Equal(t, "image/png", result.File.Type)
	assert.ElementsMatch(t, []string{"holiday", "beach"}, result.AttachedTags)

	// 存储名为随机前缀加原始文件名
	assert.Contains(t, result.File.Path, "_photo.png")
	data, err := os.ReadFile(filepath.Join(f.storageDir, result.File.Path))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestService_Upload_UUIDIndependentOfPath(t *testing.T) {
	f := setupService(t)
	user := f.createUser(t, "uuid@example.com")

	header := makeFileHeader(t, "doc.pdf", "application/pdf", []byte("pdf"))
	result, err := f.service.Upload(context.Background(), user.ID, header, nil)
	require.NoError(t, err)

	assert.NotContains(t, result.File.Path, result.File.UUID)
}

func TestService_Upload_RejectsInvalidType(t *testing.T) {
	f := setupService(t)
	user := f.createUser(t, "badtype@example.com")

	header := makeFileHeader(t, "notes.txt", "text/plain", []byte("hello"))
	_, err := f.service.Upload(context.Background(), user.ID, header, nil)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))

	// 拒绝的上传不落盘也不入库
	assert.Equal(t, 0, f.storedFileCount(t))
	var count int64
	f.db.Model(&models.File{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestService_Upload_RejectsOversize(t *testing.T) {
	f := setupService(t)
	user := f.createUser(t, "big@example.com")

	big := bytes.Repeat([]byte("a"), (10<<20)+1)
	header := makeFileHeader(t, "big.png", "image/png", big)
	_, err := f.service.Upload(context.Background(), user.ID, header, nil)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
	assert.Equal(t, 0, f.storedFileCount(t))
}

// --- 测试 List ---

func TestService_List_NewestFirstWithTags(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	user := f.createUser(t, "list@example.com")

	first, err := f.service.Upload(ctx, user.ID, makeFileHeader(t, "a.png", "image/png", []byte("a")), []string{"alpha"})
	require.NoError(t, err)
	second, err := f.service.Upload(ctx, user.ID, makeFileHeader(t, "b.png", "image/png", []byte("b")), nil)
	require.NoError(t, err)

	// created_at 秒级相同，用时间差保证排序确定
	require.NoError(t, f.db.Model(&models.File{}).Where("id = ?", first.File.ID).
		UpdateColumn("created_at", time.Now().Add(-time.Minute)).Error)

	result, err := f.service.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, second.File.ID, result[0].ID)
	assert.Equal(t, []string{}, result[0].Tags)
	assert.Equal(t, first.File.ID, result[1].ID)
	assert.Equal(t, []string{"alpha"}, result[1].Tags)
}

// --- 测试 Delete ---

func TestService_Delete_Success(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	user := f.createUser(t, "delete@example.com")

	uploaded, err := f.service.Upload(ctx, user.ID, makeFileHeader(t, "gone.png", "image/png", []byte("x")), []string{"doomed"})
	require.NoError(t, err)
	require.Equal(t, 1, f.storedFileCount(t))

	require.NoError(t, f.service.Delete(ctx, user.ID, uploaded.File.ID))

	assert.Equal(t, 0, f.storedFileCount(t))
	var fileCount, linkCount int64
	f.db.Model(&models.File{}).Count(&fileCount)
	f.db.Model(&models.TagFile{}).Count(&linkCount)
	assert.Equal(t, int64(0), fileCount)
	assert.Equal(t, int64(0), linkCount)
}

func TestService_Delete_CrossUserIs404(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	owner := f.createUser(t, "owner@example.com")
	intruder := f.createUser(t, "intruder@example.com")

	uploaded, err := f.service.Upload(ctx, owner.ID, makeFileHeader(t, "mine.png", "image/png", []byte("x")), []string{"safe"})
	require.NoError(t, err)

	err = f.service.Delete(ctx, intruder.ID, uploaded.File.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apperr.StatusOf(err))
	assert.Equal(t, "File not found", apperr.MessageOf(err))

	// 文件和关联保持不变
	var fileCount, linkCount int64
	f.db.Model(&models.File{}).Count(&fileCount)
	f.db.Model(&models.TagFile{}).Count(&linkCount)
	assert.Equal(t, int64(1), fileCount)
	assert.Equal(t, int64(1), linkCount)
	assert.Equal(t, 1, f.storedFileCount(t))
}

func TestService_Delete_MissingDiskObjectTolerated(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	user := f.createUser(t, "nodisk@example.com")

	uploaded, err := f.service.Upload(ctx, user.ID, makeFileHeader(t, "lost.png", "image/png", []byte("x")), nil)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(f.storageDir, uploaded.File.Path)))

	assert.NoError(t, f.service.Delete(ctx, user.ID, uploaded.File.ID))
}

// --- 测试 GetPublic / BumpView ---

func TestService_GetPublic_IncrementsView(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	user := f.createUser(t, "public@example.com")

	uploaded, err := f.service.Upload(ctx, user.ID, makeFileHeader(t, "pub.png", "image/png", []byte("x")), []string{"shared"})
	require.NoError(t, err)

	result, err := f.service.GetPublic(ctx, uploaded.File.UUID)
	require.NoError(t, err)
	require.Len(t, result.Tags, 1)
	assert.Equal(t, "shared", result.Tags[0].Name)

	_, err = f.service.GetPublic(ctx, uploaded.File.UUID)
	require.NoError(t, err)

	var reloaded models.File
	require.NoError(t, f.db.First(&reloaded, uploaded.File.ID).Error)
	assert.Equal(t, 2, reloaded.ViewCount)
}

func TestService_GetPublic_Unknown404(t *testing.T) {
	f := setupService(t)

	_, err := f.service.GetPublic(context.Background(), "nope-000000000000")
	require.Error(t, err)
	assert.Equal(t, 404, apperr.StatusOf(err))
}

func TestService_BumpView_UnknownIsNoop(t *testing.T) {
	f := setupService(t)
	assert.NoError(t, f.service.BumpView(context.Background(), "nope-000000000000"))
}
