package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/typerefl/errors"
)

const geoYAML = `
module: geo
types:
  - name: Point
    kind: struct
    file: geo.um
    line: 3
    fields:
      - {name: x, type: real}
      - {name: y, type: real}
      - {name: tag, type: int8}
  - name: Level
    kind: enum
    base: uint8
    consts:
      - {name: Low, value: 0}
      - {name: High, value: 1}
  - name: Index
    kind: map
    key: str
    value: Point
  - name: Callback
    kind: closure
    result: bool
    params:
      - {name: p, type: Point}
  - name: Link
    kind: weak
    base: Point
`

const badYAML = `
types:
  - name: Packed
    kind: struct
    fields:
      - {name: a, type: int8}
      - {name: b, type: int, offset: 1}
`

// sizeGuest imports refl.size and re-exports it as size_of.
var sizeGuest = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7e, // type 0: (i32) -> i64
	0x02, 0x0d, 0x01, 0x04, 'r', 'e', 'f', 'l', 0x04, 's', 'i', 'z', 'e', 0x00, 0x00, // import refl.size
	0x03, 0x02, 0x01, 0x00, // func 1: type 0
	0x07, 0x0b, 0x01, 0x07, 's', 'i', 'z', 'e', '_', 'o', 'f', 0x00, 0x01, // export size_of
	0x0a, 0x08, 0x01, 0x06, 0x00, 0x20, 0x00, 0x10, 0x00, 0x0b, // local.get 0; call 0
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(append([]string{"--log-level", "off"}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestInspect(t *testing.T) {
	desc := writeFile(t, "geo.yaml", []byte(geoYAML))

	out, stderr, code := runCLI(t, "inspect", "-d", desc)
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "Point")
	assert.Contains(t, out, "map")
	assert.Contains(t, out, "24")

	named, _, code := runCLI(t, "inspect", "--named", "-d", desc)
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, named, "Callback")
	assert.NotContains(t, named, "int8")
}

func TestDescribe(t *testing.T) {
	desc := writeFile(t, "geo.yaml", []byte(geoYAML))

	tests := []struct {
		name string
		typ  string
		want []string
	}{
		{"struct", "Point", []string{"Point struct", "declared at geo.um:3", "size 24, align 8", "16   tag int8", "wit: point"}},
		{"enum", "Level", []string{"base kind uint8", "High = 1", "wit: level"}},
		{"map", "Index", []string{"size 16, align 8", "key str", "value Point", "wit: list<tuple<string, point>>"}},
		{"closure", "Callback", []string{"returns bool", "upvalues true", "params (1):", "p Point"}},
		{"pointer", "Link", []string{"points to Point", "weak true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stderr, code := runCLI(t, "describe", "-d", desc, tt.typ)
			require.Equal(t, exitSuccess, code, stderr)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}

	_, stderr, code := runCLI(t, "describe", "-d", desc, "Missing")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, `type "Missing" not found`)

	_, stderr, code = runCLI(t, "describe", "-d", desc, "#9999")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "invalid_handle")
}

const treeYAML = `
types:
  - name: Node
    kind: struct
    fields:
      - {name: name, type: str}
      - {name: children, type: "[]Node"}
`

func TestDescribeRecursive(t *testing.T) {
	desc := writeFile(t, "tree.yaml", []byte(treeYAML))

	out, stderr, code := runCLI(t, "describe", "-d", desc, "Node")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "size 32, align 8")
	assert.Contains(t, out, "children []")
	assert.NotContains(t, out, "wit:")

	_, stderr, code = runCLI(t, "wit", "-d", desc, "Node")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "recursive types have no WIT representation")

	out, _, code = runCLI(t, "wit", "--all", "-d", desc)
	assert.Equal(t, exitSuccess, code)
	assert.Empty(t, out)
}

func TestVerify(t *testing.T) {
	good := writeFile(t, "geo.yaml", []byte(geoYAML))
	out, _, code := runCLI(t, "verify", "-d", good)
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "ok")

	bad := writeFile(t, "bad.yaml", []byte(badYAML))
	out, stderr, code := runCLI(t, "verify", "-d", bad)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "recorded offset 1, computed 8")
	assert.Contains(t, stderr, "types diverge")
}

func TestWIT(t *testing.T) {
	desc := writeFile(t, "geo.yaml", []byte(geoYAML))

	out, stderr, code := runCLI(t, "wit", "-d", desc, "Level")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Equal(t, "enum level {\n    low,\n    high,\n}\n", out)

	out, _, code = runCLI(t, "wit", "--all", "-d", desc)
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "record point {\n    x: f64,\n    y: f64,\n    tag: s8,\n}")
	assert.NotContains(t, out, "Callback")

	_, stderr, code = runCLI(t, "wit", "-d", desc, "Callback")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "unsupported")

	_, _, code = runCLI(t, "wit", "-d", desc)
	assert.Equal(t, exitUserError, code)
}

func TestWitTypeStr(t *testing.T) {
	name := "point"
	rec := &wit.TypeDef{Name: &name, Kind: &wit.Record{}}
	tests := []struct {
		typ  wit.Type
		want string
	}{
		{wit.U8{}, "u8"},
		{wit.String{}, "string"},
		{rec, "point"},
		{&wit.TypeDef{Kind: &wit.List{Type: rec}}, "list<point>"},
		{&wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.S32{}, wit.F32{}}}}, "tuple<s32, f32>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, witTypeStr(tt.typ))
	}
}

func TestConfigSources(t *testing.T) {
	desc := writeFile(t, "geo.yaml", []byte(geoYAML))

	t.Run("missing descriptor", func(t *testing.T) {
		_, stderr, code := runCLI(t, "inspect")
		assert.Equal(t, exitUserError, code)
		assert.Contains(t, stderr, "no descriptor given")
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("TYPEREFL_DESCRIPTOR", desc)
		out, stderr, code := runCLI(t, "describe", "Point")
		require.Equal(t, exitSuccess, code, stderr)
		assert.Contains(t, out, "size 24")
	})

	t.Run("config file", func(t *testing.T) {
		cfg := writeFile(t, "typerefl.yaml", []byte("descriptor: "+desc+"\ncolor: false\n"))
		out, stderr, code := runCLI(t, "--config", cfg, "describe", "Level")
		require.Equal(t, exitSuccess, code, stderr)
		assert.Contains(t, out, "Low = 0")
	})

	t.Run("explicit config must exist", func(t *testing.T) {
		_, _, code := runCLI(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "inspect")
		assert.Equal(t, exitSysError, code)
	})

	t.Run("bad descriptor", func(t *testing.T) {
		broken := writeFile(t, "broken.yaml", []byte("types: [{name: X, kind: nope}]"))
		_, _, code := runCLI(t, "inspect", "-d", broken)
		assert.Equal(t, exitUserError, code)
	})

	t.Run("invalid log level", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := execute([]string{"--log-level", "loud", "inspect", "-d", desc}, &stdout, &stderr)
		assert.Equal(t, exitUserError, code)
		assert.Contains(t, stderr.String(), "invalid log level")
	})
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		l, err := newLogger(level)
		require.NoError(t, err, level)
		assert.True(t, l.Core().Enabled(zap.ErrorLevel), level)
	}
	l, err := newLogger("off")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.ErrorLevel))

	l, _ = newLogger("warn")
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitUserError, exitCode(errors.NotFound(errors.PhaseReflect, "type", "X")))
	assert.Equal(t, exitUserError, exitCode(usagef("bad")))
	assert.Equal(t, exitSysError, exitCode(os.ErrPermission))
}

func TestRun(t *testing.T) {
	desc := writeFile(t, "geo.yaml", []byte(geoYAML))
	guest := writeFile(t, "guest.wasm", sizeGuest)

	out, stderr, code := runCLI(t, "run", "-d", desc, guest, "size_of", "Point")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Equal(t, "24\n", out)

	out, _, code = runCLI(t, "run", "-d", desc, guest, "size_of", "0")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "-1\n", out)

	_, stderr, code = runCLI(t, "run", "-d", desc, guest)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "exports: size_of")

	_, stderr, code = runCLI(t, "run", "-d", desc, guest, "size_of")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "takes 1 arguments, got 0")

	_, _, code = runCLI(t, "run", "-d", desc, guest, "size_of", "Nowhere")
	assert.Equal(t, exitUserError, code)
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	v := viper.New()
	v.Set(cfgKeyDescriptor, writeFile(t, "geo.yaml", []byte(geoYAML)))
	return &app{cfg: v, log: zap.NewNop(), styles: newStyles(false)}
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseModel(t *testing.T) {
	m := newBrowseModel(newTestApp(t))
	assert.Equal(t, "Loading descriptor...", m.View())

	m.Update(m.loadTypes())
	require.NotEmpty(t, m.visible)
	assert.Contains(t, m.View(), "> #1")
	assert.Contains(t, m.View(), "Point struct")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected)
	m.Update(keys("k"))
	assert.Equal(t, 0, m.selected)

	m.Update(keys("/"))
	assert.Equal(t, stateFilter, m.state)
	m.Update(keys("lev"))
	require.Len(t, m.visible, 1)
	assert.Equal(t, "Level", m.visible[0].name)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, stateSelectType, m.state)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, stateShowDetails, m.state)
	assert.Contains(t, m.View(), "variants (2):")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateSelectType, m.state)

	m.Update(keys("/"))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, m.visible, len(m.types))

	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBrowseModelLoadError(t *testing.T) {
	a := newTestApp(t)
	a.cfg.Set(cfgKeyDescriptor, filepath.Join(t.TempDir(), "missing.yaml"))
	m := newBrowseModel(a)
	m.Update(m.loadTypes())
	assert.Contains(t, m.View(), "Error:")
}

func TestBrowseNeedsTerminal(t *testing.T) {
	desc := writeFile(t, "geo.yaml", []byte(geoYAML))
	_, stderr, code := runCLI(t, "browse", "-d", desc)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "interactive terminal")
}

func TestUnknownFlag(t *testing.T) {
	_, stderr, code := runCLI(t, "inspect", "--bogus")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "unknown flag")
}
