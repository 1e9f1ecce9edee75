package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchema(t *testing.T) {
	result, errs := LoadSchema(libraryDir, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, 1, result.FileCount)
	assert.Len(t, result.Entities, 3)
	require.NotNil(t, result.Registry)

	fk, err := result.Registry.ForeignKeyColumnName("Book", "Subject")
	require.NoError(t, err)
	assert.Equal(t, "SubjectID", fk)
}

func TestLoadSchema_Modes(t *testing.T) {
	_, all := LoadSchema(brokenDir, LoadModeCollectAll)
	assert.Len(t, all, 2)

	result, first := LoadSchema(brokenDir, LoadModeFailFast)
	require.Len(t, first, 1)
	assert.Nil(t, result.Registry)
}

func TestLoadSchema_CompileErrorHasPosition(t *testing.T) {
	dir := t.TempDir()
	src := "package bad\n\nentity: Bad: properties: {ID: int, When: \"moment\"}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte(src), 0644))

	_, errs := LoadSchema(dir, LoadModeCollectAll)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, ErrCodePropertyType, loadErr.Code)
	assert.Contains(t, loadErr.Message, `"moment"`)
	assert.True(t, loadErr.Pos.IsValid())
}

func TestLoadQuery(t *testing.T) {
	result, errs := LoadSchema(libraryDir, LoadModeFailFast)
	require.Empty(t, errs)

	model, err := LoadQuery(queryFile("authors_books.yaml"), result.Registry)
	require.NoError(t, err)
	assert.Equal(t, "Author", model.MainFrom.ItemType.Name)

	_, err = LoadQuery(queryFile("bad_member.yaml"), result.Registry)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeInvalidQuery, loadErr.Code)
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeEntityProperties, MapFieldToErrorCode("properties"))
	assert.Equal(t, ErrCodeBuildFailed, MapFieldToErrorCode("cue"))
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode(""))
	assert.Equal(t, ErrCodePropertyType, MapFieldToErrorCode("Book.Title"))
}
