/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"github.com/hyperledger/fabric-chaincode-go/v2/shim"
	"github.com/hyperledger/fabric-contract-api-go/v2/contractapi"
	"github.com/pkg/errors"
)

// Proposal is a transaction to run in process.
type Proposal struct {
	TxID      string
	ChannelID string
	// Creator is the serialized identity of the submitter
	Creator  []byte
	Function string
	Args     []string
}

// Invoker runs proposals through the asset chaincode against an in-process State.
type Invoker struct {
	cc *contractapi.ContractChaincode
}

func NewInvoker() (*Invoker, error) {
	cc, err := New()
	if err != nil {
		return nil, err
	}
	return &Invoker{cc: cc}, nil
}

// Invoke runs the proposal and returns the response payload.
// A response status other than OK is returned as an error carrying the chaincode message.
func (i *Invoker) Invoke(state State, p Proposal) ([]byte, error) {
	res := i.cc.Invoke(&stub{state: state, proposal: p})
	if res.Status != shim.OK {
		return nil, errors.New(res.Message)
	}
	return res.Payload, nil
}

// stub backs the chaincode stub with a State. Anything outside the calls
// made by the asset transactions is left unimplemented.
type stub struct {
	shim.ChaincodeStubInterface
	state    State
	proposal Proposal
}

func (s *stub) GetState(key string) ([]byte, error) { return s.state.GetState(key) }

func (s *stub) PutState(key string, value []byte) error { return s.state.PutState(key, value) }

func (s *stub) DelState(key string) error { return s.state.DelState(key) }

func (s *stub) GetTxID() string { return s.proposal.TxID }

func (s *stub) GetChannelID() string { return s.proposal.ChannelID }

func (s *stub) GetCreator() ([]byte, error) { return s.proposal.Creator, nil }

func (s *stub) GetFunctionAndParameters() (string, []string) {
	return s.proposal.Function, s.proposal.Args
}

func (s *stub) GetStringArgs() []string {
	return append([]string{s.proposal.Function}, s.proposal.Args...)
}

func (s *stub) GetArgs() [][]byte {
	args := make([][]byte, 0, len(s.proposal.Args)+1)
	for _, a := range s.GetStringArgs() {
		args = append(args, []byte(a))
	}
	return args
}
