package appfs

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS(t *testing.T) {
	for _, name := range []string{"templates/email/_base.txt", "templates/email/gradebook.txt"} {
		content, err := fs.ReadFile(FS, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, content, name)
	}

	migrations, err := fs.Glob(FS, "migrations/*.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, migrations)
}
