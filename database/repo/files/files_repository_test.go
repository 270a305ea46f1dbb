package files

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/amamiya-dev/file-bed/database"
	"github.com/amamiya-dev/file-bed/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	// 自动迁移
	err = db.AutoMigrate(database.AllModels()...)
	require.NoError(t, err)

	return db
}

// testProvider 测试数据库提供者
type testProvider struct {
	db *gorm.DB
}

func (p *testProvider) DB() *gorm.DB {
	return p.db
}

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

func (p *testProvider) SQLDB() (*sql.DB, error) {
	return p.db.DB()
}

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

func (p *testProvider) Name() string {
	return "sqlite"
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	user := &models.User{Name: "Test User", Email: email, Password: "hash"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestFile(t *testing.T, db *gorm.DB, userID uint, uuid string, createdAt time.Time) *models.File {
	file := &models.File{
		Path:      uuid + "_sample.png",
		Type:      "image/png",
		UserID:    &userID,
		UUID:      uuid,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(file).Error)
	return file
}

// --- 测试 ListByUser ---

func TestRepository_ListByUser_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	user := createTestUser(t, db, "list@example.com")
	other := createTestUser(t, db, "other@example.com")

	base := time.Now().Add(-time.Hour)
	createTestFile(t, db, user.ID, "oldest-0000000001", base)
	createTestFile(t, db, user.ID, "middle-0000000002", base.Add(time.Minute))
	createTestFile(t, db, user.ID, "newest-0000000003", base.Add(2*time.Minute))
	createTestFile(t, db, other.ID, "foreign-000000004", base.Add(3*time.Minute))

	result, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, "newest-0000000003", result[0].UUID)
	assert.Equal(t, "middle-0000000002", result[1].UUID)
	assert.Equal(t, "oldest-0000000001", result[2].UUID)
}

func TestRepository_ListByUser_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})

	result, err := repo.ListByUser(context.Background(), 999)
	require.NoError(t, err)
	assert.Len(t, result, 0)
}

// --- 测试 FindByIDAndUser ---

func TestRepository_FindByIDAndUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	user := createTestUser(t, db, "find@example.com")
	file := createTestFile(t, db, user.ID, "findme-0000000001", time.Now())

	found, err := repo.FindByIDAndUser(ctx, file.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, file.UUID, found.UUID)
}

func TestRepository_FindByIDAndUser_WrongUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	intruder := createTestUser(t, db, "intruder@example.com")
	file := createTestFile(t, db, owner.ID, "private-000000001", time.Now())

	found, err := repo.FindByIDAndUser(ctx, file.ID, intruder.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

// --- 测试 FindByUUID ---

func TestRepository_FindByUUID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	user := createTestUser(t, db, "uuid@example.com")
	createTestFile(t, db, user.ID, "public-0000000001", time.Now())

	found, err := repo.FindByUUID(ctx, "public-0000000001")
	require.NoError(t, err)
	require.NotNil(t, found)

	missing, err := repo.FindByUUID(ctx, "does-not-exist-00")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// --- 测试 Delete ---

func TestRepository_Delete_RemovesLinks(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	user := createTestUser(t, db, "delete@example.com")
	file := createTestFile(t, db, user.ID, "deleteme-00000001", time.Now())

	tag := &models.Tag{Name: "holiday"}
	require.NoError(t, db.Create(tag).Error)
	require.NoError(t, db.Create(&models.TagFile{TagID: tag.ID, FileID: file.ID}).Error)

	err := repo.Delete(ctx, file.ID)
	require.NoError(t, err)

	var fileCount, linkCount, tagCount int64
	db.Model(&models.File{}).Where("id = ?", file.ID).Count(&fileCount)
	db.Model(&models.TagFile{}).Where("file_id = ?", file.ID).Count(&linkCount)
	db.Model(&models.Tag{}).Count(&tagCount)

	assert.Equal(t, int64(0), fileCount)
	assert.Equal(t, int64(0), linkCount)
	// 标签本身不删除
	assert.Equal(t, int64(1), tagCount)
}

// --- 测试 IncrementViewByUUID ---

func TestRepository_IncrementViewByUUID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	user := createTestUser(t, db, "view@example.com")
	file := createTestFile(t, db, user.ID, "viewed-0000000001", time.Now())

	require.NoError(t, repo.IncrementViewByUUID(ctx, file.UUID))
	require.NoError(t, repo.IncrementViewByUUID(ctx, file.UUID))

	var reloaded models.File
	require.NoError(t, db.First(&reloaded, file.ID).Error)
	assert.Equal(t, 2, reloaded.ViewCount)
}

func TestRepository_IncrementViewByUUID_UnknownIsNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})

	err := repo.IncrementViewByUUID(context.Background(), "no-such-file-0001")
	assert.NoError(t, err)
}
