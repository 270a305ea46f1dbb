package tags

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

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

func createFileRow(t *testing.T, db *gorm.DB, uuid string) *models.File {
	user := &models.User{Name: "Tag Tester", Email: uuid + "@example.com", Password: "hash"}
	require.NoError(t, db.Create(user).Error)

	file := &models.File{Path: uuid + "_doc.pdf", Type: "application/pdf", UserID: &user.ID, UUID: uuid}
	require.NoError(t, db.Create(file).Error)
	return file
}

// --- 测试 AttachToFile ---

func TestRepository_AttachToFile_CreatesMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Tag{Name: "existing"}).Error)
	file := createFileRow(t, db, "attach-0000000001")

	attached, err := repo.AttachToFile(ctx, file.ID, []string{"existing", "brand-new"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"existing", "brand-new"}, attached)

	var tagCount, linkCount int64
	db.Model(&models.Tag{}).Count(&tagCount)
	db.Model(&models.TagFile{}).Where("file_id = ?", file.ID).Count(&linkCount)
	assert.Equal(t, int64(2), tagCount)
	assert.Equal(t, int64(2), linkCount)
}

func TestRepository_AttachToFile_NoDuplicateTagRows(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	first := createFileRow(t, db, "attach-0000000002")
	second := createFileRow(t, db, "attach-0000000003")

	_, err := repo.AttachToFile(ctx, first.ID, []string{"shared"})
	require.NoError(t, err)
	_, err = repo.AttachToFile(ctx, second.ID, []string{"shared"})
	require.NoError(t, err)

	var tagCount int64
	db.Model(&models.Tag{}).Where("name = ?", "shared").Count(&tagCount)
	assert.Equal(t, int64(1), tagCount)
}

func TestRepository_AttachToFile_EmptyInput(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})

	attached, err := repo.AttachToFile(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Nil(t, attached)
}

// --- 测试 Search ---

func TestRepository_Search_CaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	for _, name := range []string{"Car", "Carpet", "scar", "boat"} {
		require.NoError(t, db.Create(&models.Tag{Name: name}).Error)
	}

	result, err := repo.Search(ctx, "ca", nil)
	require.NoError(t, err)

	names := make([]string, 0, len(result))
	for _, tag := range result {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"Car", "Carpet", "scar"}, names)
}

func TestRepository_Search_Except(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	for _, name := range []string{"Car", "Carpet", "scar"} {
		require.NoError(t, db.Create(&models.Tag{Name: name}).Error)
	}

	result, err := repo.Search(ctx, "Ca", []string{"Car"})
	require.NoError(t, err)

	names := make([]string, 0, len(result))
	for _, tag := range result {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"Carpet", "scar"}, names)
}

// --- 测试 ListByFileID ---

func TestRepository_ListByFileID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	tagged := createFileRow(t, db, "listbyfile-000001")
	plain := createFileRow(t, db, "listbyfile-000002")

	_, err := repo.AttachToFile(ctx, tagged.ID, []string{"alpha", "beta"})
	require.NoError(t, err)

	result, err := repo.ListByFileID(ctx, tagged.ID)
	require.NoError(t, err)
	assert.Len(t, result, 2)

	result, err = repo.ListByFileID(ctx, plain.ID)
	require.NoError(t, err)
	assert.Len(t, result, 0)
}

// --- 测试 ListAll / ListAllRelations ---

func TestRepository_ListAllRelations(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(&testProvider{db: db})
	ctx := context.Background()

	file := createFileRow(t, db, "relations-0000001")
	_, err := repo.AttachToFile(ctx, file.ID, []string{"one", "two", "three"})
	require.NoError(t, err)

	tags, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 3)

	relations, err := repo.ListAllRelations(ctx)
	require.NoError(t, err)
	assert.Len(t, relations, 3)
}
