/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"github.com/hyperledger-labs/fabric-asset-client/asset"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger/fabric-chaincode-go/v2/pkg/cid"
	"github.com/hyperledger/fabric-contract-api-go/v2/contractapi"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("asset", "chaincode")

// SmartContract exposes the asset transactions through the contract API.
// Argument decoding and function routing are left to contractapi; the
// transactions themselves run on the world state through Contract.
type SmartContract struct {
	contractapi.Contract

	assets Contract
}

func (s *SmartContract) CreateAsset(ctx contractapi.TransactionContextInterface, id string, owner string, value int) error {
	return s.assets.CreateAsset(ctx.GetStub(), id, owner, value)
}

func (s *SmartContract) ReadAsset(ctx contractapi.TransactionContextInterface, id string) (*asset.Asset, error) {
	return s.assets.ReadAsset(ctx.GetStub(), id)
}

func (s *SmartContract) UpdateAsset(ctx contractapi.TransactionContextInterface, id string, owner string, value int) error {
	return s.assets.UpdateAsset(ctx.GetStub(), id, owner, value)
}

func (s *SmartContract) DeleteAsset(ctx contractapi.TransactionContextInterface, id string) error {
	return s.assets.DeleteAsset(ctx.GetStub(), id)
}

func beforeTransaction(ctx contractapi.TransactionContextInterface) error {
	stub := ctx.GetStub()
	function, args := stub.GetFunctionAndParameters()
	mspID, err := cid.GetMSPID(stub)
	if err != nil {
		return errors.Wrap(err, "failed to identify the submitter")
	}
	logger.Debugf("[%s] %s %v by [%s]", stub.GetTxID(), function, args, mspID)
	return nil
}

// New returns the asset chaincode, ready to be started by the shim or served as an external chaincode.
func New() (*contractapi.ContractChaincode, error) {
	sc := &SmartContract{}
	sc.BeforeTransaction = beforeTransaction
	cc, err := contractapi.NewChaincode(sc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create asset chaincode")
	}
	return cc, nil
}
