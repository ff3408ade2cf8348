package service

import (
    "context"
    "errors"

    "golang.org/x/crypto/bcrypt"
    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
    "github.com/d60-Lab/gomall/pkg/token"
)

// RegisterInput 注册参数
type RegisterInput struct {
    Email     string
    Username  string
    Password  string
    FirstName string
    LastName  string
    Phone     string
}

// TokenPair 一次签发的访问/刷新令牌
type TokenPair struct {
    AccessToken  string `json:"access_token"`
    RefreshToken string `json:"refresh_token"`
}

// AuthService 注册登录与令牌签发
type AuthService interface {
    Register(ctx context.Context, input RegisterInput) (*model.User, TokenPair, error)
    Login(ctx context.Context, email, password string) (*model.User, TokenPair, error)
    Refresh(ctx context.Context, refreshToken string) (string, error)
}

type authService struct {
    userRepo repository.UserRepository
    maker    *token.Maker
}

func NewAuthService(userRepo repository.UserRepository, maker *token.Maker) AuthService {
    return &authService{userRepo: userRepo, maker: maker}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, TokenPair, error) {
    if taken, err := s.userRepo.ExistsByEmail(ctx, input.Email); err != nil {
        return nil, TokenPair{}, err
    } else if taken {
        return nil, TokenPair{}, ErrEmailTaken
    }
    if taken, err := s.userRepo.ExistsByUsername(ctx, input.Username); err != nil {
        return nil, TokenPair{}, err
    } else if taken {
        return nil, TokenPair{}, ErrUsernameTaken
    }

    hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
    if err != nil {
        return nil, TokenPair{}, err
    }

    user := &model.User{
        Email:        input.Email,
        Username:     input.Username,
        PasswordHash: string(hash),
        FirstName:    input.FirstName,
        LastName:     input.LastName,
        Phone:        input.Phone,
        IsActive:     true,
    }
    if err := s.userRepo.Create(ctx, user); err != nil {
        // 并发注册时唯一索引兜底
        if errors.Is(err, gorm.ErrDuplicatedKey) {
            return nil, TokenPair{}, ErrEmailTaken
        }
        return nil, TokenPair{}, err
    }

    pair, err := s.issue(user)
    if err != nil {
        return nil, TokenPair{}, err
    }
    return user, pair, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, TokenPair, error) {
    user, err := s.userRepo.GetByEmail(ctx, email)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, TokenPair{}, ErrInvalidCredentials
        }
        return nil, TokenPair{}, err
    }
    if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
        return nil, TokenPair{}, ErrInvalidCredentials
    }
    if !user.IsActive {
        return nil, TokenPair{}, ErrAccountDisabled
    }

    pair, err := s.issue(user)
    if err != nil {
        return nil, TokenPair{}, err
    }
    return user, pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
    claims, err := s.maker.ParseType(refreshToken, token.TypeRefresh)
    if err != nil {
        return "", err
    }
    user, err := s.userRepo.GetByID(ctx, claims.UserID)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return "", token.ErrInvalidToken
        }
        return "", err
    }
    if !user.IsActive {
        return "", ErrAccountDisabled
    }
    return s.maker.GenerateAccess(user.ID, user.IsAdmin)
}

func (s *authService) issue(user *model.User) (TokenPair, error) {
    access, err := s.maker.GenerateAccess(user.ID, user.IsAdmin)
    if err != nil {
        return TokenPair{}, err
    }
    refresh, err := s.maker.GenerateRefresh(user.ID, user.IsAdmin)
    if err != nil {
        return TokenPair{}, err
    }
    return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
