/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity"
	"github.com/pkg/errors"
)

var oidOrganizationalUnit = asn1.ObjectIdentifier{2, 5, 4, 11}

const (
	adminType  = "admin"
	clientType = "client"
)

type registration struct {
	secret         string
	typ            string
	affiliation    string
	maxEnrollments int
	enrollments    int
}

// LocalAuthority is an in-process certificate authority following the Fabric CA enroll and register rules.
// It counts the round trips it serves.
type LocalAuthority struct {
	name         string
	key          *ecdsa.PrivateKey
	cert         *x509.Certificate
	certPEM      []byte
	affiliations []string

	mu            sync.Mutex
	registrations map[string]*registration
	serial        int64

	enrollCalls   atomic.Int32
	registerCalls atomic.Int32
}

// NewLocalAuthority creates an authority with a bootstrap admin and the passed affiliations.
// An identity may only be registered in one of the affiliations or a sub-affiliation of them.
func NewLocalAuthority(name, bootstrapID, bootstrapSecret string, affiliations ...string) (*LocalAuthority, error) {
	key, _, err := identity.NewKey()
	if err != nil {
		return nil, err
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: name, Organization: []string{name}},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(10 * 365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	raw, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create root certificate")
	}
	cert, err := x509.ParseCertificate(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse root certificate")
	}
	return &LocalAuthority{
		name:         name,
		key:          key,
		cert:         cert,
		certPEM:      pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: raw}),
		affiliations: affiliations,
		registrations: map[string]*registration{
			bootstrapID: {secret: bootstrapSecret, typ: adminType},
		},
		serial: 1,
	}, nil
}

// Calls returns the number of enroll and register requests served.
func (a *LocalAuthority) Calls() (enroll int, register int) {
	return int(a.enrollCalls.Load()), int(a.registerCalls.Load())
}

func (a *LocalAuthority) Info(context.Context) (*Info, error) {
	return &Info{CAName: a.name, CAChain: a.certPEM, Version: "local"}, nil
}

func (a *LocalAuthority) Enroll(_ context.Context, req EnrollmentRequest) (*Enrollment, error) {
	a.enrollCalls.Add(1)

	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.registrations[req.EnrollID]
	if !ok || r.secret != req.Secret {
		return nil, &Error{StatusCode: 401, Operation: "enroll", Errors: []Message{{Code: 20, Message: "Authentication failure"}}}
	}
	if r.maxEnrollments > 0 && r.enrollments >= r.maxEnrollments {
		return nil, &Error{StatusCode: 401, Operation: "enroll", Errors: []Message{{Code: 20, Message: fmt.Sprintf("The identity %s has already enrolled %d times", req.EnrollID, r.enrollments)}}}
	}

	key, keyPEM, err := identity.NewKey()
	if err != nil {
		return nil, err
	}
	a.serial++
	template := &x509.Certificate{
		SerialNumber: big.NewInt(a.serial),
		Subject:      subject(req.EnrollID, append([]string{r.typ}, affiliationUnits(r.affiliation)...)),
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	raw, err := x509.CreateCertificate(rand.Reader, template, a.cert, &key.PublicKey, a.key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to issue certificate for [%s]", req.EnrollID)
	}
	r.enrollments++
	return &Enrollment{
		Certificate: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: raw}),
		PrivateKey:  keyPEM,
		CAChain:     a.certPEM,
	}, nil
}

func (a *LocalAuthority) Register(_ context.Context, registrar *identity.Identity, req RegistrationRequest) (string, error) {
	a.registerCalls.Add(1)
	if registrar == nil {
		return "", errors.New("registrar identity is required")
	}
	cert, err := registrar.X509Certificate()
	if err != nil {
		return "", err
	}
	if err := cert.CheckSignatureFrom(a.cert); err != nil {
		return "", &Error{StatusCode: 401, Operation: "register", Errors: []Message{{Code: 20, Message: "Authentication failure"}}}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	reg, ok := a.registrations[cert.Subject.CommonName]
	if !ok || reg.typ != adminType {
		return "", &Error{StatusCode: 401, Operation: "register", Errors: []Message{{Code: 71, Message: fmt.Sprintf("Authorization failure: %s is not a registrar", cert.Subject.CommonName)}}}
	}
	if _, exists := a.registrations[req.Name]; exists {
		return "", &Error{StatusCode: 400, Operation: "register", Errors: []Message{{Code: 74, Message: fmt.Sprintf("Identity '%s' is already registered", req.Name)}}}
	}
	if !a.validAffiliation(req.Affiliation) {
		return "", &Error{StatusCode: 400, Operation: "register", Errors: []Message{{Code: 63, Message: fmt.Sprintf("Failed getting affiliation '%s'", req.Affiliation)}}}
	}

	secret := req.Secret
	if len(secret) == 0 {
		b := make([]byte, 12)
		if _, err := rand.Read(b); err != nil {
			return "", errors.Wrap(err, "failed to generate secret")
		}
		secret = hex.EncodeToString(b)
	}
	typ := req.Type
	if len(typ) == 0 {
		typ = clientType
	}
	a.registrations[req.Name] = &registration{
		secret:         secret,
		typ:            typ,
		affiliation:    req.Affiliation,
		maxEnrollments: req.MaxEnrollments,
	}
	return secret, nil
}

func (a *LocalAuthority) validAffiliation(affiliation string) bool {
	if len(affiliation) == 0 {
		return true
	}
	for _, known := range a.affiliations {
		if affiliation == known || strings.HasPrefix(affiliation, known+".") {
			return true
		}
	}
	return false
}

// subject places every OU in its own RDN so their order survives DER SET sorting.
func subject(cn string, units []string) pkix.Name {
	name := pkix.Name{CommonName: cn}
	for _, ou := range units {
		name.ExtraNames = append(name.ExtraNames, pkix.AttributeTypeAndValue{Type: oidOrganizationalUnit, Value: ou})
	}
	return name
}

func affiliationUnits(affiliation string) []string {
	if len(affiliation) == 0 {
		return nil
	}
	return strings.Split(affiliation, ".")
}
