package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanStripsMarkupAndWhitespace(t *testing.T) {
	s := New()

	require.Equal(t, "Safe text", s.Clean("  <script>alert('x')</script>Safe text  "))
	require.Equal(t, "Bold claim", s.Clean("<b>Bold</b> claim"))
	require.Equal(t, "", s.Clean("<img src=x onerror=alert(1)>"))
}

func TestCleanAllSkipsNilTargets(t *testing.T) {
	s := New()

	name := "<i>Pump</i>"
	s.CleanAll(&name, nil)
	require.Equal(t, "Pump", name)
}
