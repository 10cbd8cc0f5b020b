// Package plugintemplate clones a per-game plugin template and renames it
// to load the archives produced by the ArchiveChunker. It never inspects or
// rewrites plugin internals beyond a byte-copy: the plugin's file stem is
// what the engine uses to auto-mount same-stemmed archives, and that stem
// is the manager's sole point of contact with the rest of the pipeline.
package plugintemplate

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caoforge/capack/pkg/gamedir"
)

//go:embed templates/*.tpl
var compiledTemplates embed.FS

// Error indicates that a plugin template is missing or unreadable, or that
// the rendered plugin could not be written.
type Error struct {
	Game   gamedir.Kind
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("plugin template error for %s: %s", e.Game, e.Reason)
}

// templateInfo pairs a compiled-in template's embedded path with the file extension
// (without a leading dot) that a cloned plugin using it should carry.
type templateInfo struct {
	extension string
	path      string
}

var compiledTemplateByGame = map[gamedir.Kind]templateInfo{
	gamedir.KindSkyrim:   {extension: "esp", path: "templates/skyrim.tpl"},
	gamedir.KindFallout4: {extension: "esp", path: "templates/fallout4.tpl"},
}

// Manager clones plugin templates for use by the Packager. The compiled-in
// templates are placeholders pending a byte-exact, validated template per
// game (see DESIGN.md and spec.md §9 Open Questions); a real deployment
// supplies Override (and optionally OverrideExtension) to use its own
// validated files.
type Manager struct {
	// Override, if set, is a path to a caller-supplied template file that
	// takes precedence over the compiled-in template for every game.
	Override string
	// OverrideExtension is the extension (without a leading dot) to use for
	// the cloned plugin when Override is set. If empty, "esp" is used.
	OverrideExtension string
}

// New creates a Manager using the compiled-in templates.
func New() *Manager {
	return &Manager{}
}

// templateBytesAndExtension resolves the bytes and extension to use for the
// given game, honoring an override if configured.
func (m *Manager) templateBytesAndExtension(game gamedir.Kind) ([]byte, string, error) {
	if m.Override != "" {
		data, err := os.ReadFile(m.Override)
		if err != nil {
			return nil, "", err
		}
		ext := m.OverrideExtension
		if ext == "" {
			ext = "esp"
		}
		return data, ext, nil
	}

	info, ok := compiledTemplateByGame[game]
	if !ok {
		return nil, "", fmt.Errorf("no compiled-in template for game %s", game)
	}
	data, err := compiledTemplates.ReadFile(info.path)
	if err != nil {
		return nil, "", err
	}
	return data, info.extension, nil
}

// Emit clones the template for game into outDir, named "{modName}.{ext}"
// where ext is the template's own extension. It returns the path to the
// written plugin.
func (m *Manager) Emit(game gamedir.Kind, modName, outDir string) (string, error) {
	data, ext, err := m.templateBytesAndExtension(game)
	if err != nil {
		return "", &Error{Game: game, Reason: err.Error()}
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", &Error{Game: game, Reason: fmt.Sprintf("unable to create output directory: %v", err)}
	}

	pluginPath := filepath.Join(outDir, fmt.Sprintf("%s.%s", modName, ext))
	if err := os.WriteFile(pluginPath, data, 0644); err != nil {
		return "", &Error{Game: game, Reason: fmt.Sprintf("unable to write plugin: %v", err)}
	}

	return pluginPath, nil
}
