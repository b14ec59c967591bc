package desktop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteAll(t *testing.T) {
	var got string
	c := &Clipboard{write: func(s string) error { got = s; return nil }}
	assert.NoError(t, c.WriteAll("emp001"))
	assert.Equal(t, "emp001", got)

	boom := errors.New("no clipboard")
	c = &Clipboard{write: func(string) error { return boom }}
	assert.ErrorIs(t, c.WriteAll("emp001"), boom)
}
