package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates
var templatesFS embed.FS

var patterns = []string{
	"templates/includes/*.html",
	"templates/posts/*.html",
	"templates/users/*.html",
	"templates/about/*.html",
	"templates/core/*.html",
}

// Templates 解析内嵌模板，media 把存储路径转换为 URL
func Templates(media func(string) string) (*template.Template, error) {
	return template.New("yatube").Funcs(FuncMap(media)).ParseFS(templatesFS, patterns...)
}

func FuncMap(media func(string) string) template.FuncMap {
	if media == nil {
		media = func(key string) string { return "/media/" + key }
	}
	return template.FuncMap{
		"media":      media,
		"dict":       dict,
		"date":       formatDate,
		"linebreaks": linebreaks,
		"truncate":   truncate,
	}
}

// dict 模板中组装参数：dict "k1" v1 "k2" v2
func dict(kv ...interface{}) (map[string]interface{}, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict expects key/value pairs")
	}
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

func formatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}

// linebreaks 转义后把换行替换为 <br>
func linebreaks(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

func truncate(n int, s string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
