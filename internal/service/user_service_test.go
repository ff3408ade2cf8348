package service

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
)

type userFixture struct {
    db   *gorm.DB
    svc  UserService
    user *model.User
}

func newUserFixture(t *testing.T) *userFixture {
    t.Helper()
    db := newServiceDB(t)
    user := &model.User{
        Username:     "profileuser",
        Email:        "profile@example.com",
        PasswordHash: "x",
        FirstName:    "Asha",
        IsActive:     true,
    }
    require.NoError(t, db.Create(user).Error)
    svc := NewUserService(db, repository.NewUserRepository(db), repository.NewAddressRepository(db))
    return &userFixture{db: db, svc: svc, user: user}
}

func strptr(s string) *string { return &s }

func addrInput(street string, isDefault bool) AddressInput {
    return AddressInput{
        AddressType: "home",
        Street:      street,
        City:        "Pune",
        State:       "MH",
        Pincode:     "411001",
        Country:     "India",
        IsDefault:   isDefault,
    }
}

func (f *userFixture) defaultCount(t *testing.T) int64 {
    t.Helper()
    var n int64
    require.NoError(t, f.db.Model(&model.Address{}).
        Where("user_id = ? AND is_default = ?", f.user.ID, true).Count(&n).Error)
    return n
}

func TestUpdateProfilePartial(t *testing.T) {
    f := newUserFixture(t)
    ctx := context.Background()

    updated, err := f.svc.UpdateProfile(ctx, f.user.ID, ProfileUpdateInput{
        LastName: strptr("Rao"),
        Phone:    strptr("9876543210"),
    })
    require.NoError(t, err)
    assert.Equal(t, "Asha", updated.FirstName) // 未传的字段保持原值
    assert.Equal(t, "Rao", updated.LastName)
    assert.Equal(t, "9876543210", updated.Phone)

    got, err := f.svc.GetProfile(ctx, f.user.ID)
    require.NoError(t, err)
    assert.Equal(t, "Rao", got.LastName)

    _, err = f.svc.GetProfile(ctx, 9999)
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAddressDefaultSwitch(t *testing.T) {
    f := newUserFixture(t)
    ctx := context.Background()

    first, err := f.svc.CreateAddress(ctx, f.user.ID, addrInput("1 FC Road", true))
    require.NoError(t, err)
    assert.True(t, first.IsDefault)

    // 新默认地址要把旧默认顶掉，任何时刻至多一个默认
    second, err := f.svc.CreateAddress(ctx, f.user.ID, addrInput("2 JM Road", true))
    require.NoError(t, err)
    assert.True(t, second.IsDefault)
    assert.EqualValues(t, 1, f.defaultCount(t))

    var reloaded model.Address
    require.NoError(t, f.db.First(&reloaded, first.ID).Error)
    assert.False(t, reloaded.IsDefault)

    // 不同用户的默认地址互不影响
    other := &model.User{Username: "other", Email: "other@example.com", PasswordHash: "x", IsActive: true}
    require.NoError(t, f.db.Create(other).Error)
    _, err = f.svc.CreateAddress(ctx, other.ID, addrInput("9 Baner Road", true))
    require.NoError(t, err)
    assert.EqualValues(t, 1, f.defaultCount(t))
}

func TestCreateAddressCountryFallback(t *testing.T) {
    f := newUserFixture(t)

    in := addrInput("3 SB Road", false)
    in.Country = ""
    addr, err := f.svc.CreateAddress(context.Background(), f.user.ID, in)
    require.NoError(t, err)
    assert.Equal(t, "India", addr.Country)
}

func TestUpdateAddressPromoteDefault(t *testing.T) {
    f := newUserFixture(t)
    ctx := context.Background()

    first, err := f.svc.CreateAddress(ctx, f.user.ID, addrInput("1 FC Road", false))
    require.NoError(t, err)
    second, err := f.svc.CreateAddress(ctx, f.user.ID, addrInput("2 JM Road", true))
    require.NoError(t, err)

    in := addrInput("1 FC Road, Shivajinagar", true)
    promoted, err := f.svc.UpdateAddress(ctx, f.user.ID, first.ID, in)
    require.NoError(t, err)
    assert.True(t, promoted.IsDefault)
    assert.Equal(t, "1 FC Road, Shivajinagar", promoted.Street)
    assert.EqualValues(t, 1, f.defaultCount(t))

    var demoted model.Address
    require.NoError(t, f.db.First(&demoted, second.ID).Error)
    assert.False(t, demoted.IsDefault)

    // 改别人的地址等同于不存在
    other := &model.User{Username: "other", Email: "other@example.com", PasswordHash: "x", IsActive: true}
    require.NoError(t, f.db.Create(other).Error)
    _, err = f.svc.UpdateAddress(ctx, other.ID, first.ID, in)
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAddress(t *testing.T) {
    f := newUserFixture(t)
    ctx := context.Background()

    addr, err := f.svc.CreateAddress(ctx, f.user.ID, addrInput("1 FC Road", false))
    require.NoError(t, err)

    require.NoError(t, f.svc.DeleteAddress(ctx, f.user.ID, addr.ID))
    assert.ErrorIs(t, f.svc.DeleteAddress(ctx, f.user.ID, addr.ID), ErrNotFound)

    list, err := f.svc.ListAddresses(ctx, f.user.ID)
    require.NoError(t, err)
    assert.Empty(t, list)
}

func TestListAddressesDefaultFirst(t *testing.T) {
    f := newUserFixture(t)
    ctx := context.Background()

    _, err := f.svc.CreateAddress(ctx, f.user.ID, addrInput("1 FC Road", false))
    require.NoError(t, err)
    def, err := f.svc.CreateAddress(ctx, f.user.ID, addrInput("2 JM Road", true))
    require.NoError(t, err)
    _, err = f.svc.CreateAddress(ctx, f.user.ID, addrInput("3 SB Road", false))
    require.NoError(t, err)

    list, err := f.svc.ListAddresses(ctx, f.user.ID)
    require.NoError(t, err)
    require.Len(t, list, 3)
    assert.Equal(t, def.ID, list[0].ID)
}
