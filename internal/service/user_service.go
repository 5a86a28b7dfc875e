package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

// BcryptCost 测试中可调低
var BcryptCost = bcrypt.DefaultCost

// ResetTokens 签发与解析重置密码令牌
type ResetTokens interface {
	Issue(userID uint64, stamp string) (string, error)
	Parse(token string) (userID uint64, stamp string, err error)
}

type UserService interface {
	SignUp(ctx context.Context, form SignUpForm) (*model.User, error)
	Authenticate(ctx context.Context, form LoginForm) (*model.User, error)
	ChangePassword(ctx context.Context, user *model.User, form PasswordChangeForm) error
	// RequestPasswordReset 邮箱未注册时返回空 token 且不报错
	RequestPasswordReset(ctx context.Context, form PasswordResetForm) (*model.User, string, error)
	CheckResetToken(ctx context.Context, token string) (*model.User, error)
	ResetPassword(ctx context.Context, token string, form SetPasswordForm) (*model.User, error)
}

type userService struct {
	users  repository.UserRepository
	tokens ResetTokens
}

func NewUserService(users repository.UserRepository, tokens ResetTokens) UserService {
	return &userService{users: users, tokens: tokens}
}

func hashPassword(raw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(raw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// passwordStamp 密码变更后旧令牌失效
func passwordStamp(u *model.User) string {
	sum := sha256.Sum256([]byte(u.PasswordHash))
	return hex.EncodeToString(sum[:8])
}

// bcrypt 只接受 72 字节以内的密码
const maxPasswordBytes = 72

func checkPasswordStrength(errs FormErrors, field, password string, u *model.User) {
	if password == "" {
		return
	}
	if len(password) > maxPasswordBytes {
		errs.Add(field, "This password is too long. It must contain at most 72 bytes.")
	}
	if strings.Trim(password, "0123456789") == "" {
		errs.Add(field, "This password is entirely numeric.")
	}
	if u != nil && strings.EqualFold(password, u.Username) {
		errs.Add(field, "The password is too similar to the username.")
	}
}

func (s *userService) SignUp(ctx context.Context, form SignUpForm) (*model.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	errs := validateForm(&form)
	u := &model.User{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
	}
	checkPasswordStrength(errs, "password2", form.Password1, u)
	if _, ok := errs["username"]; !ok {
		_, err := s.users.GetByUsername(ctx, form.Username)
		switch {
		case err == nil:
			errs.Add("username", "A user with that username already exists.")
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := hashPassword(form.Password1)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *userService) Authenticate(ctx context.Context, form LoginForm) (*model.User, error) {
	if err := validateForm(&form).Err(); err != nil {
		return nil, err
	}
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(form.Username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(form.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *userService) ChangePassword(ctx context.Context, user *model.User, form PasswordChangeForm) error {
	if user == nil {
		return ErrForbidden
	}
	errs := validateForm(&form)
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.OldPassword)) != nil {
		errs.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
	}
	checkPasswordStrength(errs, "new_password2", form.NewPassword1, user)
	if err := errs.Err(); err != nil {
		return err
	}
	return s.setPassword(ctx, user, form.NewPassword1)
}

func (s *userService) setPassword(ctx context.Context, user *model.User, raw string) error {
	hash, err := hashPassword(raw)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	user.PasswordHash = hash
	return nil
}

func (s *userService) RequestPasswordReset(ctx context.Context, form PasswordResetForm) (*model.User, string, error) {
	if err := validateForm(&form).Err(); err != nil {
		return nil, "", err
	}
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(form.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", nil
		}
		return nil, "", err
	}
	token, err := s.tokens.Issue(u.ID, passwordStamp(u))
	if err != nil {
		return nil, "", fmt.Errorf("issue reset token: %w", err)
	}
	return u, token, nil
}

func (s *userService) CheckResetToken(ctx context.Context, token string) (*model.User, error) {
	id, stamp, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if stamp != passwordStamp(u) {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func (s *userService) ResetPassword(ctx context.Context, token string, form SetPasswordForm) (*model.User, error) {
	u, err := s.CheckResetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	errs := validateForm(&form)
	checkPasswordStrength(errs, "new_password2", form.NewPassword1, u)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := s.setPassword(ctx, u, form.NewPassword1); err != nil {
		return nil, err
	}
	return u, nil
}
