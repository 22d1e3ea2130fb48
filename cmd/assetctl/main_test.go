/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gexec"
)

func TestCompile(t *testing.T) {
	gt := NewGomegaWithT(t)
	_, err := gexec.Build("github.com/hyperledger-labs/fabric-asset-client/cmd/assetctl")
	gt.Expect(err).NotTo(HaveOccurred())
	defer gexec.CleanupBuildArtifacts()
}

func TestMemoryNetwork(t *testing.T) {
	gt := NewGomegaWithT(t)
	assetctl, err := gexec.Build("github.com/hyperledger-labs/fabric-asset-client/cmd/assetctl")
	gt.Expect(err).NotTo(HaveOccurred())
	defer gexec.CleanupBuildArtifacts()

	config, err := filepath.Abs("testdata/memory.yaml")
	gt.Expect(err).NotTo(HaveOccurred())
	dir := t.TempDir()
	env := append(os.Environ(), "ASSET_CLIENT_WALLET_PATH="+filepath.Join(dir, "wallet"))

	cmd := exec.Command(assetctl, "lifecycle", "--config", config, "--asset-id", "asset303")
	cmd.Env = env
	b, err := cmd.CombinedOutput()
	gt.Expect(err).NotTo(HaveOccurred(), string(b))
	gt.Expect(string(b)).To(ContainSubstring("asset asset303: created [asset303] owner=Prakhar-Sharma value=111, updated [asset303] owner=Prakhar-Sharma-New value=222"))

	cmd = exec.Command(assetctl, "wallet", "list", "--config", config)
	cmd.Env = env
	b, err = cmd.CombinedOutput()
	gt.Expect(err).NotTo(HaveOccurred(), string(b))
	gt.Expect(string(b)).To(ContainSubstring("admin\tOrg1MSP"))
	gt.Expect(string(b)).To(ContainSubstring("appUser\tOrg1MSP"))

	cmd = exec.Command(assetctl, "lifecycle", "--config", config, "--flows", "0")
	cmd.Env = env
	b, err = cmd.CombinedOutput()
	gt.Expect(err).To(HaveOccurred())
	gt.Expect(string(b)).To(ContainSubstring("Error: invalid configuration: lifecycle: flows must be positive, got 0"))
}

func TestVersion(t *testing.T) {
	gt := NewGomegaWithT(t)
	assetctl, err := gexec.Build("github.com/hyperledger-labs/fabric-asset-client/cmd/assetctl")
	gt.Expect(err).NotTo(HaveOccurred())
	defer gexec.CleanupBuildArtifacts()

	b, err := exec.Command(assetctl, "version").CombinedOutput()
	gt.Expect(err).NotTo(HaveOccurred())
	gt.Expect(string(b)).To(ContainSubstring("assetctl:\n Version: latest"))
}
