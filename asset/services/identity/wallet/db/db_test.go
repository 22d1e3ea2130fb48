/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/wallet"
	. "github.com/onsi/gomega"
)

func admin() *identity.Identity {
	return &identity.Identity{
		Label:       "admin",
		MSPID:       "Org1MSP",
		Certificate: []byte("CERT"),
		PrivateKey:  []byte("KEY"),
	}
}

func TestGet(t *testing.T) {
	RegisterTestingT(t)
	db, mockDB, err := sqlmock.New()
	Expect(err).ToNot(HaveOccurred())

	mockDB.
		ExpectQuery("SELECT msp_id, certificate, private_key FROM identities WHERE label = \\$1").
		WithArgs("admin").
		WillReturnRows(mockDB.NewRows([]string{"msp_id", "certificate", "private_key"}).AddRow("Org1MSP", "CERT", "KEY"))
	mockDB.
		ExpectQuery("SELECT msp_id, certificate, private_key FROM identities WHERE label = \\$1").
		WithArgs("appUser").
		WillReturnError(sql.ErrNoRows)

	s, err := New(db, "")
	Expect(err).ToNot(HaveOccurred())
	id, err := s.Get(context.Background(), "admin")
	Expect(err).ToNot(HaveOccurred())
	Expect(id).To(Equal(admin()))

	_, err = s.Get(context.Background(), "appUser")
	Expect(err).To(MatchError(wallet.ErrNotFound))
	Expect(mockDB.ExpectationsWereMet()).To(Succeed())
}

func TestPut(t *testing.T) {
	RegisterTestingT(t)
	db, mockDB, err := sqlmock.New()
	Expect(err).ToNot(HaveOccurred())

	insert := "INSERT INTO wallet \\(label, msp_id, certificate, private_key\\) VALUES \\(\\$1, \\$2, \\$3, \\$4\\) ON CONFLICT \\(label\\) DO NOTHING"
	mockDB.ExpectExec(insert).
		WithArgs("admin", "Org1MSP", "CERT", "KEY").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec(insert).
		WithArgs("admin", "Org1MSP", "CERT", "KEY").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := New(db, "wallet")
	Expect(err).ToNot(HaveOccurred())
	Expect(s.Put(context.Background(), admin())).To(Succeed())
	Expect(s.Put(context.Background(), admin())).To(MatchError(wallet.ErrExists))
	Expect(mockDB.ExpectationsWereMet()).To(Succeed())
}

func TestInvalidTable(t *testing.T) {
	RegisterTestingT(t)
	_, err := New(nil, "identities; DROP TABLE x")
	Expect(err).To(HaveOccurred())
	_, err = Open("mysql", "", "")
	Expect(err).To(MatchError(ContainSubstring("unsupported persistence [mysql]")))
}

func TestSQLite(t *testing.T) {
	RegisterTestingT(t)
	s, err := Open(SQLite, "file:"+filepath.Join(t.TempDir(), "wallet.sqlite"), "")
	Expect(err).ToNot(HaveOccurred())
	defer func() { Expect(s.Close()).To(Succeed()) }()

	ctx := context.Background()
	Expect(s.Put(ctx, admin())).To(Succeed())
	Expect(s.Put(ctx, admin())).To(MatchError(wallet.ErrExists))
	user := admin()
	user.Label = "appUser"
	Expect(s.Put(ctx, user)).To(Succeed())

	id, err := s.Get(ctx, "admin")
	Expect(err).ToNot(HaveOccurred())
	Expect(id).To(Equal(admin()))
	_, err = s.Get(ctx, "ghost")
	Expect(err).To(MatchError(wallet.ErrNotFound))

	labels, err := s.List(ctx)
	Expect(err).ToNot(HaveOccurred())
	Expect(labels).To(Equal([]string{"admin", "appUser"}))

	// schema creation is idempotent
	Expect(s.CreateSchema(ctx)).To(Succeed())
}
