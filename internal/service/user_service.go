package service

import (
    "context"
    "errors"

    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
)

// ProfileUpdateInput 资料更新，仅开放这三个字段
type ProfileUpdateInput struct {
    FirstName *string
    LastName  *string
    Phone     *string
}

// AddressInput 地址参数
type AddressInput struct {
    AddressType string
    Street      string
    City        string
    State       string
    Pincode     string
    Country     string
    IsDefault   bool
}

// UserService 用户资料与收货地址
type UserService interface {
    GetProfile(ctx context.Context, userID uint) (*model.User, error)
    UpdateProfile(ctx context.Context, userID uint, input ProfileUpdateInput) (*model.User, error)

    CreateAddress(ctx context.Context, userID uint, input AddressInput) (*model.Address, error)
    ListAddresses(ctx context.Context, userID uint) ([]*model.Address, error)
    UpdateAddress(ctx context.Context, userID, addressID uint, input AddressInput) (*model.Address, error)
    DeleteAddress(ctx context.Context, userID, addressID uint) error
}

type userService struct {
    db       *gorm.DB
    userRepo repository.UserRepository
    addrRepo repository.AddressRepository
}

func NewUserService(db *gorm.DB, userRepo repository.UserRepository, addrRepo repository.AddressRepository) UserService {
    return &userService{db: db, userRepo: userRepo, addrRepo: addrRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
    user, err := s.userRepo.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, input ProfileUpdateInput) (*model.User, error) {
    user, err := s.GetProfile(ctx, userID)
    if err != nil {
        return nil, err
    }
    if input.FirstName != nil {
        user.FirstName = *input.FirstName
    }
    if input.LastName != nil {
        user.LastName = *input.LastName
    }
    if input.Phone != nil {
        user.Phone = *input.Phone
    }
    if err := s.userRepo.Update(ctx, user); err != nil {
        return nil, err
    }
    return user, nil
}

func (s *userService) CreateAddress(ctx context.Context, userID uint, input AddressInput) (*model.Address, error) {
    addr := &model.Address{
        UserID:      userID,
        AddressType: input.AddressType,
        Street:      input.Street,
        City:        input.City,
        State:       input.State,
        Pincode:     input.Pincode,
        Country:     input.Country,
        IsDefault:   input.IsDefault,
    }
    if addr.Country == "" {
        addr.Country = "India"
    }
    // 设为默认时先清掉旧默认，同一事务内保证至多一个默认地址
    err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
        if addr.IsDefault {
            if err := tx.Model(&model.Address{}).
                Where("user_id = ? AND is_default = ?", userID, true).
                Update("is_default", false).Error; err != nil {
                return err
            }
        }
        return tx.Create(addr).Error
    })
    if err != nil {
        return nil, err
    }
    return addr, nil
}

func (s *userService) ListAddresses(ctx context.Context, userID uint) ([]*model.Address, error) {
    return s.addrRepo.ListByUser(ctx, userID)
}

func (s *userService) UpdateAddress(ctx context.Context, userID, addressID uint, input AddressInput) (*model.Address, error) {
    addr, err := s.addrRepo.GetByIDForUser(ctx, addressID, userID)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrNotFound
        }
        return nil, err
    }

    addr.AddressType = input.AddressType
    addr.Street = input.Street
    addr.City = input.City
    addr.State = input.State
    addr.Pincode = input.Pincode
    if input.Country != "" {
        addr.Country = input.Country
    }
    addr.IsDefault = input.IsDefault

    err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
        if addr.IsDefault {
            if err := tx.Model(&model.Address{}).
                Where("user_id = ? AND is_default = ? AND id <> ?", userID, true, addr.ID).
                Update("is_default", false).Error; err != nil {
                return err
            }
        }
        return tx.Save(addr).Error
    })
    if err != nil {
        return nil, err
    }
    return addr, nil
}

func (s *userService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
    if err := s.addrRepo.Delete(ctx, addressID, userID); err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return ErrNotFound
        }
        return err
    }
    return nil
}
