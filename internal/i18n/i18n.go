package i18n

import (
	"fmt"
	"strings"

	"github.com/campusdash/internal/constants"

	"github.com/gin-gonic/gin"
)

// 支持的语言
const (
	LocaleEN = constants.LocaleEnUS
	LocaleZH = constants.LocaleZhCN
)

const (
	localeQueryKey  = "locale"
	localeHeaderKey = "X-Locale"
)

var catalogs = map[string]map[string]string{
	LocaleEN: messagesEN,
	LocaleZH: messagesZH,
}

// NormalizeLocale 归一化语言标识，未知语言回退英文
func NormalizeLocale(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return LocaleEN
	}
	value = strings.ReplaceAll(value, "_", "-")
	if i := strings.IndexAny(value, ";,"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	switch {
	case strings.HasPrefix(value, "zh"):
		return LocaleZH
	case strings.HasPrefix(value, "en"):
		return LocaleEN
	}
	return LocaleEN
}

// ResolveLocale 依次读取 ?locale、X-Locale、Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return LocaleEN
	}
	if value := strings.TrimSpace(c.Query(localeQueryKey)); value != "" {
		return NormalizeLocale(value)
	}
	if value := strings.TrimSpace(c.GetHeader(localeHeaderKey)); value != "" {
		return NormalizeLocale(value)
	}
	return NormalizeLocale(c.GetHeader("Accept-Language"))
}

// T 翻译消息，缺失时回退英文，再回退 key 本身
func T(locale, key string) string {
	if catalog, ok := catalogs[NormalizeLocale(locale)]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := messagesEN[key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	if len(args) == 0 {
		return T(locale, key)
	}
	return fmt.Sprintf(T(locale, key), args...)
}
