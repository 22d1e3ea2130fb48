/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package provisioner

import (
	"context"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/ca"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/wallet"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

var logger = logging.MustGetLogger("asset", "identity", "provisioner")

// ErrAdminNotFound is returned when a user is provisioned before the admin identity exists
var ErrAdminNotFound = errors.New("admin identity not found")

// CertificateAuthority issues identities.
type CertificateAuthority interface {
	Enroll(ctx context.Context, req ca.EnrollmentRequest) (*ca.Enrollment, error)
	Register(ctx context.Context, registrar *identity.Identity, req ca.RegistrationRequest) (string, error)
}

// AdminSpec identifies the organization administrator and its bootstrap secret.
type AdminSpec struct {
	Label    string
	EnrollID string
	Secret   string
}

// UserSpec identifies an application identity to register through the administrator.
type UserSpec struct {
	Label       string
	Affiliation string
	Role        string
}

// Provisioner makes sure identities exist in a wallet, enrolling them only when absent.
type Provisioner struct {
	store wallet.Store
	ca    CertificateAuthority
	mspID string

	group singleflight.Group
}

func New(store wallet.Store, authority CertificateAuthority, mspID string) *Provisioner {
	return &Provisioner{store: store, ca: authority, mspID: mspID}
}

// EnsureAdmin returns the admin identity, enrolling it with the bootstrap secret if the wallet lacks it.
func (p *Provisioner) EnsureAdmin(ctx context.Context, spec AdminSpec) (*identity.Identity, error) {
	enrollID := spec.EnrollID
	if len(enrollID) == 0 {
		enrollID = spec.Label
	}
	return p.ensure(ctx, spec.Label, func() (*identity.Identity, error) {
		e, err := p.ca.Enroll(ctx, ca.EnrollmentRequest{EnrollID: enrollID, Secret: spec.Secret})
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to enroll admin [%s]", spec.Label)
		}
		return p.newIdentity(spec.Label, e), nil
	})
}

// EnsureUser returns the user identity.
// If the wallet lacks it, the user is registered by the admin stored under adminLabel, then enrolled.
func (p *Provisioner) EnsureUser(ctx context.Context, adminLabel string, spec UserSpec) (*identity.Identity, error) {
	return p.ensure(ctx, spec.Label, func() (*identity.Identity, error) {
		admin, err := p.store.Get(ctx, adminLabel)
		if err != nil {
			if errors.Is(err, wallet.ErrNotFound) {
				return nil, errors.Wrapf(ErrAdminNotFound, "an identity for the admin user [%s] does not exist in the wallet, enroll the admin before retrying", adminLabel)
			}
			return nil, err
		}
		secret, err := p.ca.Register(ctx, admin, ca.RegistrationRequest{
			Name:        spec.Label,
			Type:        spec.Role,
			Affiliation: spec.Affiliation,
		})
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to register user [%s]", spec.Label)
		}
		e, err := p.ca.Enroll(ctx, ca.EnrollmentRequest{EnrollID: spec.Label, Secret: secret})
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to enroll user [%s]", spec.Label)
		}
		return p.newIdentity(spec.Label, e), nil
	})
}

// ensure looks the label up and, when missing, provisions and stores it.
// Concurrent calls for the same label share one provisioning.
func (p *Provisioner) ensure(ctx context.Context, label string, provision func() (*identity.Identity, error)) (*identity.Identity, error) {
	if len(label) == 0 {
		return nil, errors.New("identity label is required")
	}
	v, err, _ := p.group.Do(label, func() (interface{}, error) {
		id, err := p.store.Get(ctx, label)
		if err == nil {
			logger.Infof("an identity for [%s] already exists in the wallet", label)
			return id, nil
		}
		if !errors.Is(err, wallet.ErrNotFound) {
			return nil, errors.WithMessagef(err, "failed to look up [%s]", label)
		}

		id, err = provision()
		if err != nil {
			return nil, err
		}
		if err := p.store.Put(ctx, id); err != nil {
			if errors.Is(err, wallet.ErrExists) {
				// stored by another process in the meantime
				return p.store.Get(ctx, label)
			}
			return nil, errors.WithMessagef(err, "failed to store [%s]", label)
		}
		logger.Infof("successfully enrolled [%s] and imported it into the wallet", label)
		return id, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*identity.Identity), nil
}

func (p *Provisioner) newIdentity(label string, e *ca.Enrollment) *identity.Identity {
	return &identity.Identity{
		Label:       label,
		MSPID:       p.mspID,
		Certificate: e.Certificate,
		PrivateKey:  e.PrivateKey,
	}
}
