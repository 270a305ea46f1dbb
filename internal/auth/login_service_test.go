package auth

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/amamiya-dev/file-bed/database"
	"github.com/amamiya-dev/file-bed/database/repo/users"
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

func setupLoginService(t *testing.T) (*LoginService, *gorm.DB) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.AllModels()...))

	tokens, err := NewTokenService("login-test-secret", time.Hour)
	require.NoError(t, err)

	usersRepo := users.NewRepository(&testProvider{db: db})
	return NewLoginService(usersRepo, tokens), db
}

func TestLoginService_RegisterAndLogin(t *testing.T) {
	svc, _ := setupLoginService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "Alice Smith", "alice@example.com", "password")
	require.NoError(t, err)
	assert.NotEmpty(t, created.Token)
	assert.NotZero(t, created.User.ID)
	// 密码不以明文入库
	assert.NotEqual(t, "password", created.User.Password)

	result, ok, err := svc.Login(ctx, "alice@example.com", "password")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created.User.ID, result.User.ID)
	assert.NotEmpty(t, result.Token)
}

func TestLoginService_Login_WrongPassword(t *testing.T) {
	svc, _ := setupLoginService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Bob Jones", "bob@example.com", "password")
	require.NoError(t, err)

	result, ok, err := svc.Login(ctx, "bob@example.com", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestLoginService_Login_UnknownEmail(t *testing.T) {
	svc, _ := setupLoginService(t)

	result, ok, err := svc.Login(context.Background(), "nobody@example.com", "password")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestLoginService_EmailTaken(t *testing.T) {
	svc, _ := setupLoginService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Carol White", "carol@example.com", "password")
	require.NoError(t, err)

	taken, err := svc.EmailTaken(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = svc.EmailTaken(ctx, "free@example.com")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestLoginService_FindUser(t *testing.T) {
	svc, _ := setupLoginService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "Dave Green", "dave@example.com", "password")
	require.NoError(t, err)

	user, err := svc.FindUser(ctx, created.User.ID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "dave@example.com", user.Email)

	missing, err := svc.FindUser(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
