/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"

	gwidentity "github.com/hyperledger/fabric-gateway/pkg/identity"
	"github.com/hyperledger/fabric-protos-go-apiv2/msp"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
)

// X509Type is the only credential type handled by this client.
const X509Type = "X.509"

// Identity is an enrolled X.509 identity held in a wallet under its label.
type Identity struct {
	Label string
	MSPID string
	// Certificate is the PEM encoded enrollment certificate
	Certificate []byte
	// PrivateKey is the PEM encoded PKCS#8 private key
	PrivateKey []byte
}

// Validate checks that the identity carries a parsable certificate and key.
func (id *Identity) Validate() error {
	if len(id.Label) == 0 {
		return errors.New("identity label is empty")
	}
	if len(id.MSPID) == 0 {
		return errors.Errorf("identity [%s] has no msp id", id.Label)
	}
	if _, err := id.X509Certificate(); err != nil {
		return err
	}
	if _, err := id.Key(); err != nil {
		return err
	}
	return nil
}

// X509Certificate parses the enrollment certificate.
func (id *Identity) X509Certificate() (*x509.Certificate, error) {
	cert, err := gwidentity.CertificateFromPEM(id.Certificate)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse certificate of [%s]", id.Label)
	}
	return cert, nil
}

// Key parses the private key.
func (id *Identity) Key() (crypto.PrivateKey, error) {
	key, err := gwidentity.PrivateKeyFromPEM(id.PrivateKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse private key of [%s]", id.Label)
	}
	return key, nil
}

// Serialize returns the identity as it appears in the creator field of a proposal.
func (id *Identity) Serialize() ([]byte, error) {
	raw, err := proto.Marshal(&msp.SerializedIdentity{Mspid: id.MSPID, IdBytes: id.Certificate})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize identity [%s]", id.Label)
	}
	return raw, nil
}

// GatewayIdentity returns the identity in the form expected by the gateway client.
func (id *Identity) GatewayIdentity() (*gwidentity.X509Identity, error) {
	cert, err := id.X509Certificate()
	if err != nil {
		return nil, err
	}
	xid, err := gwidentity.NewX509Identity(id.MSPID, cert)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create x509 identity for [%s]", id.Label)
	}
	return xid, nil
}

// Sign returns a signing function over message digests.
// ECDSA signatures are normalized to low-S, as required by Fabric.
func (id *Identity) Sign() (gwidentity.Sign, error) {
	key, err := id.Key()
	if err != nil {
		return nil, err
	}
	sign, err := gwidentity.NewPrivateKeySign(key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create signer for [%s]", id.Label)
	}
	return sign, nil
}

// SignMessage hashes msg with SHA-256 and signs the digest.
func (id *Identity) SignMessage(msg []byte) ([]byte, error) {
	sign, err := id.Sign()
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(msg)
	return sign(digest[:])
}

// NewKey generates a P-256 key and returns it with its PEM encoding.
func NewKey() (*ecdsa.PrivateKey, []byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to generate key")
	}
	raw, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to marshal key")
	}
	return key, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: raw}), nil
}

// NewCSR creates a PEM encoded certificate signing request for the passed enrollment id.
func NewCSR(key *ecdsa.PrivateKey, enrollID string) ([]byte, error) {
	raw, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject:            pkix.Name{CommonName: enrollID},
		SignatureAlgorithm: x509.ECDSAWithSHA256,
	}, key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create csr for [%s]", enrollID)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: raw}), nil
}
