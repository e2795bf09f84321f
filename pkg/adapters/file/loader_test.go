package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/domain"
)

const yamlTree = `
name: game
main: lobby
states:
  - name: root
    children: [lobby, match]
  - name: lobby
    systems:
      - logger
  - name: match
    systems:
      - name: score
        type: counter
        params:
          step: 10
        options:
          announce: true
`

const jsonTree = `{
  "name": "menu",
  "states": [
    {"name": "title", "systems": ["logger", {"name": "fade", "type": "tween"}]}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoader_LoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "game.yaml", yamlTree)

	loader := file.NewLoader(dir)
	desc, err := loader.Load("game")
	require.NoError(t, err)

	assert.Equal(t, "game", desc.Name)
	assert.Equal(t, "lobby", desc.Main)
	require.Len(t, desc.States, 3)

	// Bare string form defaults name to type.
	lobby := desc.States[1]
	require.Len(t, lobby.Systems, 1)
	assert.Equal(t, "logger", lobby.Systems[0].Type)
	assert.Equal(t, "logger", lobby.Systems[0].InstanceName())

	match := desc.States[2]
	require.Len(t, match.Systems, 1)
	assert.Equal(t, "score", match.Systems[0].Name)
	assert.Equal(t, "counter", match.Systems[0].Type)
	assert.Equal(t, 10, match.Systems[0].Params["step"])
	assert.Equal(t, true, match.Systems[0].Options["announce"])
}

func TestLoader_LoadJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "menu.json", jsonTree)

	loader := file.NewLoader(dir)
	desc, err := loader.Load("menu")
	require.NoError(t, err)

	require.Len(t, desc.States, 1)
	systems := desc.States[0].Systems
	require.Len(t, systems, 2)
	assert.Equal(t, "logger", systems[0].Type)
	assert.Equal(t, "fade", systems[1].Name)
	assert.Equal(t, "tween", systems[1].Type)
}

func TestLoader_Missing(t *testing.T) {
	loader := file.NewLoader(t.TempDir())
	_, err := loader.Load("ghost")
	require.ErrorIs(t, err, domain.ErrMissingNode)
}

func TestLoader_List(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "game.yaml", yamlTree)
	writeFile(t, dir, "menu.json", jsonTree)
	writeFile(t, dir, "notes.txt", "not a tree")

	loader := file.NewLoader(dir)
	names, err := loader.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"game", "menu"}, names)
}

func TestParse_MissingName(t *testing.T) {
	_, err := file.Parse([]byte(`states: [{name: lonely}]`), ".yaml")
	require.ErrorIs(t, err, domain.ErrConfiguration)
}
