package migrations_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/relocation/migrations"
)

func TestEveryUpHasADown(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(migrations.FS, down)
		assert.NoError(t, err, "missing %s", down)
	}
}

func TestSchemaStepsAreIdempotent(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)

	for _, up := range ups {
		b, err := fs.ReadFile(migrations.FS, up)
		require.NoError(t, err)
		sql := string(b)
		if strings.Contains(sql, "ADD COLUMN") {
			assert.NotContains(t, strings.ReplaceAll(sql, "ADD COLUMN IF NOT EXISTS", ""), "ADD COLUMN", up)
		}
		if strings.Contains(sql, "CREATE") {
			assert.Contains(t, sql, "IF NOT EXISTS", up)
		}
	}
}
