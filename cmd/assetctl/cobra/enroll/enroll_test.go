/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package enroll

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCmd(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wallet")
	t.Setenv("ASSET_CLIENT_WALLET_PATH", dir)

	for i := 0; i < 2; i++ {
		cmd := Cmd()
		b := bytes.NewBufferString("")
		cmd.SetOut(b)
		cmd.SetArgs([]string{"--config", "../../testdata/memory.yaml"})
		require.NoError(t, cmd.Execute())
		assert.Contains(t, b.String(), "Identities [admin] and [appUser] are available in the wallet")
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"admin.id", "appUser.id"}, names)
}

func TestCmdInvalidConfig(t *testing.T) {
	cmd := Cmd()
	cmd.SetArgs([]string{"--config", "../../testdata/missing.yaml"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}
