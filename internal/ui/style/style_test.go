package style_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/strata/internal/ui/style"
)

func TestLayerTable(t *testing.T) {
	out := style.LayerTable("POS", "LAYER", "FLAGS").
		Row("0", "base", "-").
		Row("1", "app/web", "dynamic").
		String()

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 6)
	assert.Contains(t, out, "LAYER")
	assert.Contains(t, out, "app/web")
	assert.Less(t, strings.Index(out, "base"), strings.Index(out, "app/web"))
}
