/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrUnreachable is returned when the certificate authority cannot be contacted
	ErrUnreachable = errors.New("certificate authority unreachable")
	// ErrAlreadyRegistered is returned when registering an identity the authority already knows
	ErrAlreadyRegistered = errors.New("identity already registered")
	// ErrAuthentication is returned when the enrollment secret or the registrar token is rejected
	ErrAuthentication = errors.New("authentication failure")
)

// EnrollmentRequest carries the enrollment id and secret of the identity to enroll.
type EnrollmentRequest struct {
	EnrollID string
	Secret   string
	Profile  string
}

// Enrollment is the outcome of a successful enrollment.
type Enrollment struct {
	// Certificate is the PEM encoded enrollment certificate
	Certificate []byte
	// PrivateKey is the PEM encoded key generated for the enrollment
	PrivateKey []byte
	// CAChain is the PEM encoded chain of the issuing authority
	CAChain []byte
}

// Attribute is a registration attribute.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	ECert bool   `json:"ecert,omitempty"`
}

// RegistrationRequest describes the identity to register.
type RegistrationRequest struct {
	Name           string
	Type           string
	Affiliation    string
	Secret         string
	MaxEnrollments int
	Attributes     []Attribute
}

// Info describes the certificate authority.
type Info struct {
	CAName  string
	CAChain []byte
	Version string
}

// Message is an error or info message returned by the certificate authority.
type Message struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error is a request rejected by the certificate authority.
type Error struct {
	StatusCode int
	Operation  string
	Errors     []Message
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, m := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("code %d: %s", m.Code, m.Message))
	}
	return fmt.Sprintf("%s failed with status %d: [%s]", e.Operation, e.StatusCode, strings.Join(msgs, "; "))
}

// Is classifies the rejection.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAlreadyRegistered:
		for _, m := range e.Errors {
			if strings.Contains(m.Message, "already registered") {
				return true
			}
		}
	case ErrAuthentication:
		return e.StatusCode == 401
	}
	return false
}
