package service

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
    "github.com/d60-Lab/gomall/pkg/token"
)

func newAuthFixture(t *testing.T) (AuthService, *gorm.DB, *token.Maker) {
    t.Helper()
    db := newServiceDB(t)
    maker, err := token.NewMaker("unit-test-secret", 15*time.Minute, 24*time.Hour)
    if err != nil {
        t.Fatalf("new maker: %v", err)
    }
    return NewAuthService(repository.NewUserRepository(db), maker), db, maker
}

func registerInput() RegisterInput {
    return RegisterInput{
        Email:    "john@example.com",
        Username: "johndoe",
        Password: "password123",
    }
}

func TestRegisterAndLogin(t *testing.T) {
    svc, _, maker := newAuthFixture(t)
    ctx := context.Background()

    user, pair, err := svc.Register(ctx, registerInput())
    require.NoError(t, err)
    assert.NotZero(t, user.ID)
    assert.NotEmpty(t, pair.AccessToken)
    assert.NotEmpty(t, pair.RefreshToken)
    assert.NotEqual(t, "password123", user.PasswordHash)

    claims, err := maker.ParseType(pair.AccessToken, token.TypeAccess)
    require.NoError(t, err)
    assert.Equal(t, user.ID, claims.UserID)
    assert.False(t, claims.IsAdmin)

    got, loginPair, err := svc.Login(ctx, "john@example.com", "password123")
    require.NoError(t, err)
    assert.Equal(t, user.ID, got.ID)
    assert.NotEmpty(t, loginPair.AccessToken)
}

func TestRegisterDuplicate(t *testing.T) {
    svc, _, _ := newAuthFixture(t)
    ctx := context.Background()

    _, _, err := svc.Register(ctx, registerInput())
    require.NoError(t, err)

    _, _, err = svc.Register(ctx, registerInput())
    assert.ErrorIs(t, err, ErrEmailTaken)

    input := registerInput()
    input.Email = "john2@example.com"
    _, _, err = svc.Register(ctx, input)
    assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginRejections(t *testing.T) {
    svc, db, _ := newAuthFixture(t)
    ctx := context.Background()

    user, _, err := svc.Register(ctx, registerInput())
    require.NoError(t, err)

    // 密码错误和账号不存在返回同一个错误，不暴露哪个环节错了
    _, _, err = svc.Login(ctx, "john@example.com", "wrong-password")
    assert.ErrorIs(t, err, ErrInvalidCredentials)

    _, _, err = svc.Login(ctx, "nobody@example.com", "password123")
    assert.ErrorIs(t, err, ErrInvalidCredentials)

    require.NoError(t, db.Model(&model.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)
    _, _, err = svc.Login(ctx, "john@example.com", "password123")
    assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestRefresh(t *testing.T) {
    svc, db, maker := newAuthFixture(t)
    ctx := context.Background()

    user, pair, err := svc.Register(ctx, registerInput())
    require.NoError(t, err)

    access, err := svc.Refresh(ctx, pair.RefreshToken)
    require.NoError(t, err)
    claims, err := maker.ParseType(access, token.TypeAccess)
    require.NoError(t, err)
    assert.Equal(t, user.ID, claims.UserID)

    // access token 不能拿来换新令牌
    _, err = svc.Refresh(ctx, pair.AccessToken)
    assert.ErrorIs(t, err, token.ErrWrongType)

    _, err = svc.Refresh(ctx, "not-a-token")
    assert.ErrorIs(t, err, token.ErrInvalidToken)

    require.NoError(t, db.Model(&model.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)
    _, err = svc.Refresh(ctx, pair.RefreshToken)
    assert.ErrorIs(t, err, ErrAccountDisabled)
}
