package fileset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "stages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDescriptorResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, `
stages:
  - name: runtime
    basedirs: [build/dist, /opt/extra]
    include: ["lib/**/*.so*", "bin/**"]
    exclude: ["**/*.a"]
    force_include: ["lib/keep.a"]
    dest: out/runtime
    dest_prefix: usr/
    keep_dest: true
    manifest: out/runtime.manifest
    archive: out/runtime.tar.zst
  - name: headers
    basedirs: [build/include]
    dest: /srv/headers
    always_copy: true
`)

	d, err := loadDescriptor(path)
	require.NoError(t, err)
	require.Len(t, d.Stages, 2)

	rt := d.Stages[0]
	assert.Equal(t, "runtime", rt.Name)
	assert.Equal(t, []string{filepath.Join(dir, "build", "dist"), "/opt/extra"}, rt.BaseDirs)
	assert.Equal(t, []string{"lib/**/*.so*", "bin/**"}, rt.Include)
	assert.Equal(t, []string{"**/*.a"}, rt.Exclude)
	assert.Equal(t, []string{"lib/keep.a"}, rt.ForceInclude)
	assert.Equal(t, filepath.Join(dir, "out", "runtime"), rt.Dest)
	assert.Equal(t, "usr/", rt.DestPrefix)
	assert.True(t, rt.KeepDest)
	assert.Equal(t, filepath.Join(dir, "out", "runtime.manifest"), rt.Manifest)
	assert.Equal(t, filepath.Join(dir, "out", "runtime.tar.zst"), rt.Archive)

	hdr := d.Stages[1]
	assert.Equal(t, "/srv/headers", hdr.Dest)
	assert.True(t, hdr.AlwaysCopy)
	assert.Empty(t, hdr.Manifest)
	assert.Empty(t, hdr.Archive)
}

func TestLoadDescriptorValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no stages", "stages: []\n", "no stages"},
		{"missing name", "stages:\n  - basedirs: [a]\n    dest: out\n", "stage 0 has no name"},
		{"duplicate", "stages:\n  - {name: a, basedirs: [a], dest: out}\n  - {name: a, basedirs: [b], dest: out2}\n", `duplicate stage "a"`},
		{"no basedirs", "stages:\n  - {name: a, dest: out}\n", `stage "a" has no basedirs`},
		{"no dest", "stages:\n  - {name: a, basedirs: [a]}\n", `stage "a" has no dest`},
		{"bad archive", "stages:\n  - {name: a, basedirs: [a], dest: out, archive: out.zip}\n", "unknown archive format"},
		{"not yaml", "stages: [\n", "invalid stage descriptor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadDescriptor(writeDescriptor(t, t.TempDir(), tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, errInvalidDescriptor)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDescriptorMissingFile(t *testing.T) {
	_, err := loadDescriptor(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSelectStages(t *testing.T) {
	d := &Descriptor{Stages: []Stage{{Name: "a"}, {Name: "b"}, {Name: "c"}}}

	all, err := d.selectStages(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, stageNames(all))

	picked, err := d.selectStages([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, stageNames(picked))

	_, err = d.selectStages([]string{"a", "zz"})
	assert.ErrorIs(t, err, errStageNotFound)
}

func stageNames(stages []Stage) []string {
	names := make([]string, 0, len(stages))
	for _, st := range stages {
		names = append(names, st.Name)
	}
	return names
}
