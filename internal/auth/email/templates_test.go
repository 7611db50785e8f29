package email

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Parallel()

	t.Run("otp includes the code", func(t *testing.T) {
		subject, text, html, err := render(KindOTP, map[string]string{
			"DisplayName": "Alice",
			"Code":        "123456",
			"TTL":         "10 minutes",
		})
		require.NoError(t, err)
		require.Equal(t, "Your login code", subject)
		require.Contains(t, text, "123456")
		require.Contains(t, html, "<strong>123456</strong>")
	})

	t.Run("reset includes the link", func(t *testing.T) {
		_, text, html, err := render(KindResetPassword, map[string]string{
			"DisplayName": "Bob",
			"Link":        "https://example.com/reset?token=abc",
			"TTL":         "1 hour",
		})
		require.NoError(t, err)
		require.Contains(t, text, "https://example.com/reset?token=abc")
		require.Contains(t, html, `href="https://example.com/reset?token=abc"`)
	})

	t.Run("html escapes display names", func(t *testing.T) {
		_, _, html, err := render(KindVerifyEmail, map[string]string{
			"DisplayName": "<script>x</script>",
			"Link":        "https://example.com/verify",
			"TTL":         "24 hours",
		})
		require.NoError(t, err)
		require.NotContains(t, html, "<script>")
	})

	t.Run("unknown kind errors", func(t *testing.T) {
		_, _, _, err := render(Kind("bogus"), nil)
		require.Error(t, err)
	})
}
