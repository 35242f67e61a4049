package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeLocale(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"zh":         LocaleZH,
		"zh-CN":      LocaleZH,
		"zh-HK":      LocaleTW,
		"zh-Hant-TW": LocaleTW,
		"en":         LocaleEN,
		"en-GB":      LocaleEN,
		"fr-FR":      "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeLocale(raw), raw)
	}
}

func TestTFallback(t *testing.T) {
	const key = "error.fallback_only_zh"
	messages[DefaultLocale][key] = "仅简体"
	t.Cleanup(func() { delete(messages[DefaultLocale], key) })

	assert.Equal(t, "Order not found", T(LocaleEN, "error.order_not_found"))
	assert.Equal(t, "訂單查詢失敗", T(LocaleTW, "error.order_fetch_failed"))
	// 缺失的 key 回退简体
	assert.Equal(t, "仅简体", T(LocaleTW, key))
	assert.Equal(t, "仅简体", T("fr-FR", key))
	assert.Equal(t, "error.unknown_key", T(LocaleEN, "error.unknown_key"))
	assert.Equal(t, "Order DB1 paid", Sprintf(LocaleEN, "email.settlement.subject", "DB1"))
}

func TestLocaleTablesShareKeys(t *testing.T) {
	for locale, table := range messages {
		for key := range messages[DefaultLocale] {
			_, ok := table[key]
			assert.True(t, ok, "%s missing %s", locale, key)
		}
	}
}

func TestResolveLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		target string
		header map[string]string
		want   string
	}{
		{name: "query_wins", target: "/?lang=en", header: map[string]string{"Accept-Language": "zh-TW,zh;q=0.9"}, want: LocaleEN},
		{name: "x_locale_header", target: "/", header: map[string]string{"X-Locale": "en-GB", "Accept-Language": "zh-TW"}, want: LocaleEN},
		{name: "accept_language", target: "/", header: map[string]string{"Accept-Language": "zh-TW,zh;q=0.9"}, want: LocaleTW},
		{name: "unknown_query_skipped", target: "/?lang=fr", header: map[string]string{"Accept-Language": "zh-HK"}, want: LocaleTW},
		{name: "default", target: "/", want: DefaultLocale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.header {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ResolveLocale(c))
		})
	}
	assert.Equal(t, DefaultLocale, ResolveLocale(nil))
}
