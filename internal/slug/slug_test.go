package slug

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allowed = regexp.MustCompile(`^[a-z0-9-]*$`)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Hoa Hồng Đỏ!":             "hoa-hong-do",
		"  Bó hoa   Cẩm Chướng  ":  "bo-hoa-cam-chuong",
		"Lan Hồ Điệp\tTrắng":       "lan-ho-diep-trang",
		"Giỏ hoa 20/11":            "gio-hoa-2011",
		"already-slugged-title":    "already-slugged-title",
		"Hello -":                  "hello",
		"":                         "",
		"!!!":                      "",
		"Crème Brûlée & Ça Va 100": "creme-brulee-ca-va-100",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), "Make(%q)", in)
	}
}

func TestMakeProperties(t *testing.T) {
	inputs := []string{"Hoa Hồng Đỏ!", "  a  b   c ", "Tulip  Hà Lan -- đẹp", "ĐÀ LẠT", "x\n\ny"}
	for _, in := range inputs {
		out := Make(in)
		assert.Regexp(t, allowed, out)
		if out != "" {
			assert.NotEqual(t, byte('-'), out[0], "leading hyphen in %q", out)
			assert.NotEqual(t, byte('-'), out[len(out)-1], "trailing hyphen in %q", out)
		}
		assert.Equal(t, out, Make(out), "Make should be idempotent for %q", in)
	}
	assert.Equal(t, "a-b-c", Make("  a  b   c "))
}

func TestFind(t *testing.T) {
	type post struct {
		ID    int
		Title string
	}
	posts := []post{{1, "Ý nghĩa hoa hồng"}, {2, "Cách cắm hoa"}, {3, "Y nghia hoa hong"}}
	title := func(p post) string { return p.Title }

	got, ok := Find(posts, "cach-cam-hoa", title)
	assert.True(t, ok)
	assert.Equal(t, 2, got.ID)

	// colliding titles resolve to the first match
	got, ok = Find(posts, "y-nghia-hoa-hong", title)
	assert.True(t, ok)
	assert.Equal(t, 1, got.ID)

	_, ok = Find(posts, "missing", title)
	assert.False(t, ok)
}
