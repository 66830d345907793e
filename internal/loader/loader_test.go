package loader

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, src := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(src), 0o644))
	}
	return fs
}

func loadPaths(t *testing.T, files map[string]string, entry string) []string {
	t.Helper()
	mods, err := New(memFs(t, files)).Load(entry)
	require.Nil(t, err)
	paths := make([]string, len(mods))
	for i, m := range mods {
		paths[i] = m.Path
	}
	return paths
}

func TestDependenciesEvaluateBeforeImporters(t *testing.T) {
	paths := loadPaths(t, map[string]string{
		"a.ts":    `console.log("a");`,
		"b.ts":    `import './a';`,
		"main.ts": `import './b';`,
	}, "main.ts")
	require.Equal(t, []string{"a.ts", "b.ts", "main.ts"}, paths)
}

func TestDiamondDependencyLoadsOnce(t *testing.T) {
	paths := loadPaths(t, map[string]string{
		"shared.ts": `export const s = 1;`,
		"left.ts":   `import { s } from './shared'; export const l = s;`,
		"right.ts":  `import { s } from './shared'; export const r = s;`,
		"main.ts":   `import { l } from './left'; import { r } from './right';`,
	}, "main.ts")
	require.Equal(t, []string{"shared.ts", "left.ts", "right.ts", "main.ts"}, paths)
}

func TestExtensionProbing(t *testing.T) {
	paths := loadPaths(t, map[string]string{
		"dep.ts":  `export const x = 1;`,
		"main.ts": `import { x } from './dep';`,
	}, "main.ts")
	require.Equal(t, []string{"dep.ts", "main.ts"}, paths)
}

func TestBuiltinModulesResolveWithoutFiles(t *testing.T) {
	mods, err := New(memFs(t, map[string]string{
		"main.ts": `import { EventEmitter } from 'events';`,
	})).Load("main.ts")
	require.Nil(t, err)
	require.Len(t, mods, 2)
	require.Equal(t, BuiltinPrefix+"events", mods[0].Path)
	require.True(t, mods[0].Builtin)
}

func TestCircularImportsDoNotLoop(t *testing.T) {
	paths := loadPaths(t, map[string]string{
		"a.ts": `import { b } from './b'; export const a = 1;`,
		"b.ts": `import { a } from './a'; export const b = 2;`,
	}, "a.ts")
	// The cycle leaf (b, which re-enters a while a is in progress)
	// finishes first; a's exports object serves as the placeholder.
	require.Equal(t, []string{"b.ts", "a.ts"}, paths)
}

func TestMissingModuleIsIoError(t *testing.T) {
	_, err := New(memFs(t, map[string]string{
		"main.ts": `import './nope';`,
	})).Load("main.ts")
	require.NotNil(t, err)
}

func TestBareNonBuiltinSpecifierIsResolveError(t *testing.T) {
	_, err := New(memFs(t, map[string]string{
		"main.ts": `import 'lodash';`,
	})).Load("main.ts")
	require.NotNil(t, err)
}

func TestSubdirectoryRelativeResolution(t *testing.T) {
	paths := loadPaths(t, map[string]string{
		"lib/util.ts": `export const u = 1;`,
		"lib/mid.ts":  `import { u } from './util'; export const m = u;`,
		"main.ts":     `import { m } from './lib/mid';`,
	}, "main.ts")
	require.Equal(t, []string{"lib/util.ts", "lib/mid.ts", "main.ts"}, paths)
}
