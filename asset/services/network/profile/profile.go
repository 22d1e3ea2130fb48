/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package profile

import (
	"encoding/json"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ErrMalformedProfile is returned when a connection profile cannot be parsed or is incomplete
var ErrMalformedProfile = errors.New("malformed connection profile")

// PEM holds one or more PEM blocks. Profiles carry either a single string or a list.
type PEM []string

func (p *PEM) UnmarshalJSON(raw []byte) error {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		*p = PEM{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return err
	}
	*p = list
	return nil
}

func (p *PEM) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*p = PEM{single}
		return nil
	}
	var list []string
	if err := unmarshal(&list); err != nil {
		return err
	}
	*p = list
	return nil
}

// Bytes concatenates the PEM blocks.
func (p PEM) Bytes() []byte {
	return []byte(strings.Join(p, "\n"))
}

type TLSCACerts struct {
	PEM  PEM    `json:"pem" yaml:"pem"`
	Path string `json:"path" yaml:"path"`
}

type Client struct {
	Organization string `json:"organization" yaml:"organization"`
}

type Organization struct {
	MSPID                  string   `json:"mspid" yaml:"mspid"`
	Peers                  []string `json:"peers" yaml:"peers"`
	CertificateAuthorities []string `json:"certificateAuthorities" yaml:"certificateAuthorities"`
}

type Peer struct {
	URL         string                 `json:"url" yaml:"url"`
	TLSCACerts  TLSCACerts             `json:"tlsCACerts" yaml:"tlsCACerts"`
	GRPCOptions map[string]interface{} `json:"grpcOptions" yaml:"grpcOptions"`
}

type HTTPOptions struct {
	Verify bool `json:"verify" yaml:"verify"`
}

type CertificateAuthority struct {
	URL         string      `json:"url" yaml:"url"`
	CAName      string      `json:"caName" yaml:"caName"`
	TLSCACerts  TLSCACerts  `json:"tlsCACerts" yaml:"tlsCACerts"`
	HTTPOptions HTTPOptions `json:"httpOptions" yaml:"httpOptions"`
}

// Profile is a common connection profile as produced by the Fabric test network.
type Profile struct {
	Name                   string                          `json:"name" yaml:"name"`
	Version                string                          `json:"version" yaml:"version"`
	Client                 Client                          `json:"client" yaml:"client"`
	Organizations          map[string]Organization         `json:"organizations" yaml:"organizations"`
	Peers                  map[string]Peer                 `json:"peers" yaml:"peers"`
	CertificateAuthorities map[string]CertificateAuthority `json:"certificateAuthorities" yaml:"certificateAuthorities"`

	dir string
}

// Load reads a profile, selecting the decoder from the file extension.
func Load(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedProfile, "failed to read connection profile [%s]: %s", path, err)
	}
	p, err := Parse(raw, filepath.Ext(path))
	if err != nil {
		return nil, errors.WithMessagef(err, "connection profile [%s]", path)
	}
	p.dir = filepath.Dir(path)
	return p, nil
}

// Parse decodes a profile. The extension selects between YAML and JSON.
func Parse(raw []byte, ext string) (*Profile, error) {
	p := &Profile{}
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, p)
	default:
		err = json.Unmarshal(raw, p)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedProfile, "%s", err)
	}
	if len(p.Client.Organization) == 0 {
		return nil, errors.Wrap(ErrMalformedProfile, "client organization not set")
	}
	if _, ok := p.Organizations[p.Client.Organization]; !ok {
		return nil, errors.Wrapf(ErrMalformedProfile, "client organization [%s] not defined", p.Client.Organization)
	}
	return p, nil
}

// Organization returns the organization of the client.
func (p *Profile) Organization() Organization {
	return p.Organizations[p.Client.Organization]
}

// EndorsingOrganizations returns the MSP IDs of the organizations declared in the profile, sorted.
func (p *Profile) EndorsingOrganizations() []string {
	var ids []string
	for _, o := range p.Organizations {
		if len(o.MSPID) != 0 {
			ids = append(ids, o.MSPID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Endpoint is a resolved gateway peer.
type Endpoint struct {
	Name string
	// Address is host:port to dial
	Address string
	// ServerName is the name expected in the peer TLS certificate
	ServerName string
	TLS        bool
	TLSRootPEM []byte
}

// GatewayPeer resolves the first peer of the client organization.
// With asLocalhost the host is replaced by localhost and the original host is kept as TLS server name.
func (p *Profile) GatewayPeer(asLocalhost bool) (*Endpoint, error) {
	org := p.Organization()
	if len(org.Peers) == 0 {
		return nil, errors.Wrapf(ErrMalformedProfile, "organization [%s] has no peers", p.Client.Organization)
	}
	name := org.Peers[0]
	peer, ok := p.Peers[name]
	if !ok {
		return nil, errors.Wrapf(ErrMalformedProfile, "peer [%s] not defined", name)
	}
	u, err := url.Parse(peer.URL)
	if err != nil || len(u.Host) == 0 {
		return nil, errors.Wrapf(ErrMalformedProfile, "invalid url [%s] for peer [%s]", peer.URL, name)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedProfile, "invalid address [%s] for peer [%s]", u.Host, name)
	}

	e := &Endpoint{Name: name, Address: u.Host, ServerName: host, TLS: u.Scheme == "grpcs"}
	for _, key := range []string{"ssl-target-name-override", "hostnameOverride"} {
		if override, ok := peer.GRPCOptions[key].(string); ok && len(override) != 0 {
			e.ServerName = override
			break
		}
	}
	if asLocalhost {
		e.Address = net.JoinHostPort("localhost", port)
	}
	if e.TLS {
		e.TLSRootPEM, err = p.readCerts(peer.TLSCACerts)
		if err != nil {
			return nil, errors.WithMessagef(err, "peer [%s]", name)
		}
	}
	return e, nil
}

// CertificateAuthority returns the first CA of the client organization, or the named one.
func (p *Profile) CertificateAuthority(name string) (*CertificateAuthority, []byte, error) {
	if len(name) == 0 {
		cas := p.Organization().CertificateAuthorities
		if len(cas) == 0 {
			return nil, nil, errors.Wrapf(ErrMalformedProfile, "organization [%s] has no certificate authorities", p.Client.Organization)
		}
		name = cas[0]
	}
	ca, ok := p.CertificateAuthorities[name]
	if !ok {
		return nil, nil, errors.Wrapf(ErrMalformedProfile, "certificate authority [%s] not defined", name)
	}
	roots, err := p.readCerts(ca.TLSCACerts)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "certificate authority [%s]", name)
	}
	return &ca, roots, nil
}

func (p *Profile) readCerts(c TLSCACerts) ([]byte, error) {
	if len(c.PEM) != 0 {
		return c.PEM.Bytes(), nil
	}
	if len(c.Path) == 0 {
		return nil, nil
	}
	path := c.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.dir, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedProfile, "failed to read tls ca certs [%s]: %s", path, err)
	}
	return raw, nil
}
