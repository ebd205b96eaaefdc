package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhone(t *testing.T) {
	assert.True(t, Phone("9876543210"))
	assert.True(t, Phone("+91 98765 43210"))
	assert.True(t, Phone("09876543210"))
	assert.True(t, Phone("919876543210"))

	assert.False(t, Phone(""))
	assert.False(t, Phone("12345"))
	assert.False(t, Phone("1234567890")) // mobiles start 6-9
	assert.False(t, Phone("not a number"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello", Sanitize(`he"llo'`, 0))
	assert.Equal(t, "scriptalert(1)/script", Sanitize(`<script>alert(1)</script>`, 0))
	assert.Equal(t, "", Sanitize("", 100))

	long := strings.Repeat("a", 600)
	assert.Len(t, Sanitize(long, 500), 500)
}
