package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfiles_Embedded(t *testing.T) {
	all, err := LoadProfiles("")
	require.NoError(t, err)

	assert.Equal(t, []string{"nver", "wangyi"}, ProfileIDs(all))

	nver := all["nver"]
	assert.Equal(t, 4, nver.Turns)
	assert.Equal(t, []string{"mou_er_hou_dong", "tie_qi"}, nver.BuildNames())
	assert.Equal(t, []string{"none", "ma_teng", "zhang_chunhua", "zhen_ji", "pang_tong", "xun_yu"}, nver.SupportNames())
	assert.Equal(t, 8, nver.BonusPool.Size)

	wangyi := all["wangyi"]
	b, ok := wangyi.FindBuild("mou_er_hou_dong")
	require.True(t, ok)
	assert.True(t, b.ChainPrimary)
	assert.Len(t, b.RateThresholds, 2)
}

func TestLoadProfile_Unknown(t *testing.T) {
	_, err := LoadProfile("", "nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownProfile))
}

func TestLoadProfiles_Dir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", `
id: mini
turns: 2
enemies: 1
primary: { rate: 1, coefficient: 1, targets: 1 }
builds:
  - { name: solo, kind: solo }
`)

	all, err := LoadProfiles(dir)
	require.NoError(t, err)
	require.Contains(t, all, "mini")
	assert.Equal(t, 2, all["mini"].Turns)
}

func TestLoadProfiles_RejectsUnknownSupportKind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", `
id: bad
turns: 4
enemies: 3
primary: { rate: 0.5, coefficient: 1, targets: 2 }
builds:
  - { name: solo, kind: solo }
supports:
  - { name: cao_cao, kind: emperor }
`)

	_, err := LoadProfiles(dir)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Error(), `unknown support kind "emperor"`)
}

func TestLoadProfiles_RejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "typo.yaml", `
id: typo
turns: 4
enemies: 3
primary: { rate: 0.5, coefficent: 1, targets: 2 }
builds:
  - { name: solo, kind: solo }
`)

	_, err := LoadProfiles(dir)
	assert.Error(t, err)
}

func TestLoadProfiles_EmptyDir(t *testing.T) {
	_, err := LoadProfiles(t.TempDir())
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}
