package service

import (
	"strconv"
	"strings"
)

// Upload 表单中上传的文件
type Upload struct {
	Filename string
	Data     []byte
}

type PostForm struct {
	Text  string `form:"text" validate:"notblank"`
	Group string `form:"group"`
	// ClearImage 编辑时删除已有图片
	ClearImage bool    `form:"image-clear"`
	Image      *Upload `form:"-" validate:"-"`
}

// groupID 空字符串表示不选分组
func (f *PostForm) groupID() (*uint64, bool) {
	g := strings.TrimSpace(f.Group)
	if g == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(g, 10, 64)
	if err != nil || id == 0 {
		return nil, false
	}
	return &id, true
}

type CommentForm struct {
	Text string `form:"text" validate:"notblank"`
}

type GroupForm struct {
	Title       string `form:"title" validate:"required,max=200"`
	Slug        string `form:"slug" validate:"required,max=50,slug"`
	Description string `form:"description"`
}

type SignUpForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email,max=254"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type PasswordChangeForm struct {
	OldPassword  string `form:"old_password" validate:"required"`
	NewPassword1 string `form:"new_password1" validate:"required,min=8"`
	NewPassword2 string `form:"new_password2" validate:"required,eqfield=NewPassword1"`
}

type PasswordResetForm struct {
	Email string `form:"email" validate:"required,email"`
}

type SetPasswordForm struct {
	NewPassword1 string `form:"new_password1" validate:"required,min=8"`
	NewPassword2 string `form:"new_password2" validate:"required,eqfield=NewPassword1"`
}
