package web

import (
	"bytes"
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/pagination"
)

func TestTemplates_AllPagesDefined(t *testing.T) {
	tmpl, err := Templates(nil)
	require.NoError(t, err)
	for _, name := range []string{
		"posts/index.html",
		"posts/group_list.html",
		"posts/profile.html",
		"posts/post_detail.html",
		"posts/create_post.html",
		"posts/follow.html",
		"users/signup.html",
		"users/login.html",
		"users/logged_out.html",
		"users/password_change_form.html",
		"users/password_change_done.html",
		"users/password_reset_form.html",
		"users/password_reset_done.html",
		"users/password_reset_confirm.html",
		"users/password_reset_complete.html",
		"about/author.html",
		"about/tech.html",
		"core/404.html",
		"core/500.html",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestTemplates_RenderIndex(t *testing.T) {
	tmpl, err := Templates(func(k string) string { return "/m/" + k })
	require.NoError(t, err)

	author := &model.User{ID: 1, Username: "leo"}
	group := &model.Group{ID: 1, Title: "Cats", Slug: "cats"}
	posts := []*model.Post{
		{ID: 2, Text: "line one\nline <two>", Author: author, Group: group, Image: "posts/a.png", CreatedAt: time.Now()},
		{ID: 1, Text: "plain", Author: author, CreatedAt: time.Now()},
	}
	page := pagination.With(pagination.Paginate(12, "1", 10), posts)

	var buf bytes.Buffer
	err = tmpl.ExecuteTemplate(&buf, "posts/index.html", map[string]interface{}{
		"page_obj": page,
		"user":     (*model.User)(nil),
		"path":     "/",
		"year":     2024,
	})
	require.NoError(t, err)
	html := buf.String()
	assert.Contains(t, html, "line one<br>line &lt;two&gt;")
	assert.Contains(t, html, `src="/m/posts/a.png"`)
	assert.Contains(t, html, `href="/group/cats/"`)
	assert.Contains(t, html, `href="?page=2"`)
	assert.Contains(t, html, "Log in")
}

func TestDict(t *testing.T) {
	m, err := dict("a", 1, "b", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, m["a"])

	_, err = dict("a")
	assert.Error(t, err)
	_, err = dict(1, 2)
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, template.HTML("a<br>b"), linebreaks("a\r\nb"))
	assert.Equal(t, "abc…", truncate(3, "abcdef"))
	assert.Equal(t, "ab", truncate(3, "ab"))
}
