package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signUp(t *testing.T, svc UserService, username string) {
	t.Helper()
	_, err := svc.SignUp(context.Background(), SignUpForm{
		Username:  username,
		Email:     username + "@example.com",
		Password1: "s3cret-pass",
		Password2: "s3cret-pass",
	})
	require.NoError(t, err)
}

func TestUserService_SignUp(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.users, fakeTokens{})
	ctx := context.Background()

	u, err := svc.SignUp(ctx, SignUpForm{
		FirstName: "Leo",
		LastName:  "Tolstoy",
		Username:  "leo",
		Email:     "leo@example.com",
		Password1: "war-and-peace",
		Password2: "war-and-peace",
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "war-and-peace", u.PasswordHash)
	assert.Equal(t, "Leo Tolstoy", u.FullName())

	tests := map[string]struct {
		form  SignUpForm
		field string
	}{
		"duplicate": {SignUpForm{Username: "leo", Password1: "abcdefgh1", Password2: "abcdefgh1"}, "username"},
		"bad chars": {SignUpForm{Username: "leo tolstoy", Password1: "abcdefgh1", Password2: "abcdefgh1"}, "username"},
		"mismatch":  {SignUpForm{Username: "ann", Password1: "abcdefgh1", Password2: "abcdefgh2"}, "password2"},
		"short":     {SignUpForm{Username: "ann", Password1: "abc", Password2: "abc"}, "password1"},
		"numeric":   {SignUpForm{Username: "ann", Password1: "12345678", Password2: "12345678"}, "password2"},
		"email":     {SignUpForm{Username: "ann", Email: "nope", Password1: "abcdefgh1", Password2: "abcdefgh1"}, "email"},
		"too long":  {SignUpForm{Username: "ann", Password1: strings.Repeat("a1", 40), Password2: strings.Repeat("a1", 40)}, "password2"},
	}
	for name, tt := range tests {
		_, err := svc.SignUp(ctx, tt.form)
		fe, ok := AsFormErrors(err)
		require.True(t, ok, name)
		assert.Contains(t, fe, tt.field, name)
	}
}

func TestUserService_Authenticate(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.users, fakeTokens{})
	ctx := context.Background()
	signUp(t, svc, "leo")

	u, err := svc.Authenticate(ctx, LoginForm{Username: "leo", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "leo", u.Username)

	_, err = svc.Authenticate(ctx, LoginForm{Username: "leo", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, LoginForm{Username: "ghost", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, LoginForm{})
	_, ok := AsFormErrors(err)
	assert.True(t, ok)
}

func TestUserService_ChangePassword(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.users, fakeTokens{})
	ctx := context.Background()
	signUp(t, svc, "leo")
	u, err := e.users.GetByUsername(ctx, "leo")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u, PasswordChangeForm{OldPassword: "bad", NewPassword1: "new-pass-1", NewPassword2: "new-pass-1"})
	fe, ok := AsFormErrors(err)
	require.True(t, ok)
	assert.Contains(t, fe, "old_password")

	require.NoError(t, svc.ChangePassword(ctx, u, PasswordChangeForm{OldPassword: "s3cret-pass", NewPassword1: "new-pass-1", NewPassword2: "new-pass-1"}))
	_, err = svc.Authenticate(ctx, LoginForm{Username: "leo", Password: "new-pass-1"})
	assert.NoError(t, err)
}

func TestUserService_LongPassword(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.users, fakeTokens{})
	ctx := context.Background()
	signUp(t, svc, "leo")
	u, err := e.users.GetByUsername(ctx, "leo")
	require.NoError(t, err)

	long := strings.Repeat("x9", 40)
	limit := strings.Repeat("y", 72)

	err = svc.ChangePassword(ctx, u, PasswordChangeForm{OldPassword: "s3cret-pass", NewPassword1: long, NewPassword2: long})
	fe, ok := AsFormErrors(err)
	require.True(t, ok, "change: %v", err)
	assert.Contains(t, fe, "new_password2")

	_, token, err := svc.RequestPasswordReset(ctx, PasswordResetForm{Email: "leo@example.com"})
	require.NoError(t, err)
	_, err = svc.ResetPassword(ctx, token, SetPasswordForm{NewPassword1: long, NewPassword2: long})
	fe, ok = AsFormErrors(err)
	require.True(t, ok, "reset: %v", err)
	assert.Contains(t, fe, "new_password2")

	// 72 字节仍然可以使用
	require.NoError(t, svc.ChangePassword(ctx, u, PasswordChangeForm{OldPassword: "s3cret-pass", NewPassword1: limit, NewPassword2: limit}))
	_, err = svc.Authenticate(ctx, LoginForm{Username: "leo", Password: limit})
	assert.NoError(t, err)
}

func TestUserService_PasswordReset(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.users, fakeTokens{})
	ctx := context.Background()
	signUp(t, svc, "leo")

	u, token, err := svc.RequestPasswordReset(ctx, PasswordResetForm{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Empty(t, token)

	u, token, err = svc.RequestPasswordReset(ctx, PasswordResetForm{Email: "LEO@example.com"})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, token)

	checked, err := svc.CheckResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, checked.ID)

	_, err = svc.ResetPassword(ctx, token, SetPasswordForm{NewPassword1: "brand-new-1", NewPassword2: "brand-new-2"})
	_, ok := AsFormErrors(err)
	assert.True(t, ok)

	_, err = svc.ResetPassword(ctx, token, SetPasswordForm{NewPassword1: "brand-new-1", NewPassword2: "brand-new-1"})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, LoginForm{Username: "leo", Password: "brand-new-1"})
	assert.NoError(t, err)

	_, err = svc.CheckResetToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken, "token is single use")
	_, err = svc.CheckResetToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGroupService(t *testing.T) {
	e := newEnv(t)
	svc := NewGroupService(e.groups)
	ctx := context.Background()

	g, err := svc.Create(ctx, GroupForm{Title: "Cats", Slug: "cats"})
	require.NoError(t, err)
	assert.NotZero(t, g.ID)

	_, err = svc.Create(ctx, GroupForm{Title: "Cats again", Slug: "cats"})
	fe, ok := AsFormErrors(err)
	require.True(t, ok)
	assert.Contains(t, fe, "slug")

	_, err = svc.Create(ctx, GroupForm{Title: "Bad", Slug: "not a slug"})
	fe, ok = AsFormErrors(err)
	require.True(t, ok)
	assert.Contains(t, fe, "slug")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
