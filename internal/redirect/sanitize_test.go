package redirect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Run("rejects unsafe candidates", func(t *testing.T) {
		unsafe := []string{
			"",
			"https://evil.com",
			"http://evil.com/admin",
			"//evil.com",
			"//evil.com/path",
			"/\\evil.com",
			"javascript:alert(1)",
			"data:text/html,x",
			"evil.com/path",
			"relative/path",
			"./relative",
			"../parent",
			"/path\r\nSet-Cookie: x=y",
			"/path\nnewline",
			"/path\rcarriage",
			"/path\x00null",
			"/path\x1b[0m",
			"/path\x7f",
			"http:/evil.com",
			"HTTPS://evil.com",
		}
		for _, candidate := range unsafe {
			assert.Empty(t, Sanitize(candidate), "candidate %q should be rejected", candidate)
		}
	})

	t.Run("accepts path-rooted candidates unchanged", func(t *testing.T) {
		safe := []string{
			"/",
			"/admin",
			"/admin/users/42",
			"/admin/users?page=2",
			"/admin/users?redirect=%2Fother",
			"/path#fragment",
			"/path-with_chars.ext",
			"/a/b/c/d/e",
		}
		for _, candidate := range safe {
			assert.Equal(t, candidate, Sanitize(candidate), "candidate %q should pass through", candidate)
		}
	})

	t.Run("rejects userinfo and host smuggling", func(t *testing.T) {
		// url.Parse treats these as opaque or host-carrying references
		assert.Empty(t, Sanitize("//user:pass@evil.com"))
		assert.Empty(t, Sanitize("//@evil.com"))
	})
}

func TestFirstSafe(t *testing.T) {
	t.Run("returns first safe candidate", func(t *testing.T) {
		assert.Equal(t, "/admin/users/42", FirstSafe("/fallback", "//evil.com", "/admin/users/42"))
	})

	t.Run("falls back when all candidates are unsafe", func(t *testing.T) {
		assert.Equal(t, "/fallback", FirstSafe("/fallback", "https://evil.com", ""))
	})

	t.Run("falls back with no candidates", func(t *testing.T) {
		assert.Equal(t, "/fallback", FirstSafe("/fallback"))
	})
}
