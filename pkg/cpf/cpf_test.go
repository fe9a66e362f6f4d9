package cpf

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("valid bare digits", func(t *testing.T) {
		got, err := Validate("11144477735")
		require.NoError(t, err)
		assert.Equal(t, "11144477735", got)
	})

	t.Run("formatted input normalizes to digits", func(t *testing.T) {
		got, err := Validate("111.444.777-35")
		require.NoError(t, err)
		assert.Equal(t, "11144477735", got)
	})

	t.Run("idempotent on its own output", func(t *testing.T) {
		first, err := Validate("111.444.777-35")
		require.NoError(t, err)
		second, err := Validate(first)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("wrong digit count fails format", func(t *testing.T) {
		for _, in := range []string{"", "1234567890", "123456789012", "abc", "111.444.777-3"} {
			_, err := Validate(in)
			assert.ErrorIs(t, err, ErrInvalidFormat, "input %q", in)
		}
	})

	t.Run("identical digits fail checksum", func(t *testing.T) {
		for d := 0; d <= 9; d++ {
			in := strings.Repeat(strconv.Itoa(d), 11)
			_, err := Validate(in)
			assert.ErrorIs(t, err, ErrInvalidChecksum, "input %q", in)
		}
	})

	t.Run("wrong first check digit fails checksum", func(t *testing.T) {
		_, err := Validate("11144477745")
		assert.ErrorIs(t, err, ErrInvalidChecksum)
	})

	t.Run("wrong second check digit fails checksum", func(t *testing.T) {
		_, err := Validate("11144477736")
		assert.ErrorIs(t, err, ErrInvalidChecksum)
	})

	t.Run("non-digit noise is stripped before counting", func(t *testing.T) {
		got, err := Validate(" 111 444 777 35 ")
		require.NoError(t, err)
		assert.Equal(t, "11144477735", got)
	})
}
