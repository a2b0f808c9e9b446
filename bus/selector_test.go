package bus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	sel := Key("orders.created")
	assert.True(t, sel.Matches("orders.created"))
	assert.False(t, sel.Matches("orders.updated"))
	assert.False(t, sel.Matches(""))

	intSel := Key(42)
	assert.True(t, intSel.Matches(42))
	assert.False(t, intSel.Matches(7))
}

func TestAny(t *testing.T) {
	sel := Any[string]()
	assert.True(t, sel.Matches("anything"))
	assert.True(t, sel.Matches(""))
}

func TestMatchFunc(t *testing.T) {
	sel := MatchFunc[string](func(key string) bool {
		return strings.HasPrefix(key, "orders.")
	})
	assert.True(t, sel.Matches("orders.created"))
	assert.False(t, sel.Matches("billing.created"))
}

func TestPattern(t *testing.T) {
	sel, err := Pattern(`^orders\.\w+$`)
	require.NoError(t, err)
	assert.True(t, sel.Matches("orders.created"))
	assert.False(t, sel.Matches("orders."))
	assert.False(t, sel.Matches("billing.created"))

	_, err = Pattern(`[unclosed`)
	assert.Error(t, err, "An invalid expression should be rejected")
}
