package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/d60-Lab/yatube/internal/repository"
)

var (
	ErrNotFound           = repository.ErrNotFound
	ErrForbidden          = errors.New("forbidden")
	ErrFollowSelf         = errors.New("cannot follow self")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// NonFieldKey 不属于具体字段的表单错误
const NonFieldKey = "__all__"

// FormErrors 字段名 -> 错误提示，用于重新渲染表单
type FormErrors map[string]string

func (e FormErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Add 同一字段只保留第一条错误
func (e FormErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Err 没有错误时返回 nil
func (e FormErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// AsFormErrors 取出表单错误
func AsFormErrors(err error) (FormErrors, bool) {
	var fe FormErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
