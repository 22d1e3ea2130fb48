/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"sync"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/chaincode"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
	"github.com/pkg/errors"
)

// Ledger is an in-process world state where every transaction commits as soon as it is submitted.
type Ledger struct {
	mu         sync.RWMutex
	namespaces map[string]map[string][]byte
	faults     map[string]driver.Stage
	invoker    *chaincode.Invoker

	opened, closed int
}

func NewLedger() (*Ledger, error) {
	invoker, err := chaincode.NewInvoker()
	if err != nil {
		return nil, err
	}
	return &Ledger{
		namespaces: map[string]map[string][]byte{},
		faults:     map[string]driver.Stage{},
		invoker:    invoker,
	}, nil
}

// Deploy makes the asset contract available on the channel under the given chaincode name.
func (l *Ledger) Deploy(channel, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := namespace(channel, name)
	if _, ok := l.namespaces[key]; !ok {
		l.namespaces[key] = map[string][]byte{}
	}
}

// InjectFault makes the next submission of function fail at the given stage.
func (l *Ledger) InjectFault(function string, stage driver.Stage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults[function] = stage
}

// Sessions returns how many sessions were opened and closed.
func (l *Ledger) Sessions() (opened int, closed int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.opened, l.closed
}

// Get returns the committed value of key.
func (l *Ledger) Get(channel, name, key string) []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.namespaces[namespace(channel, name)][key]
}

func (l *Ledger) sessionOpened() {
	l.mu.Lock()
	l.opened++
	l.mu.Unlock()
}

func (l *Ledger) sessionClosed() {
	l.mu.Lock()
	l.closed++
	l.mu.Unlock()
}

func (l *Ledger) submit(channel, name string, p chaincode.Proposal) ([]byte, error) {
	function, txID := p.Function, p.TxID
	l.mu.Lock()
	defer l.mu.Unlock()

	fault, faulty := l.faults[function]
	if faulty {
		delete(l.faults, function)
	}
	newErr := func(stage driver.Stage, err error, details ...string) error {
		return &driver.TransactionError{Stage: stage, Function: function, TxID: txID, Details: details, Err: err}
	}

	state, err := l.namespaceState(channel, name)
	if err != nil {
		return nil, newErr(driver.EndorseStage, err)
	}
	if faulty && fault == driver.EndorseStage {
		return nil, newErr(fault, errors.New("failed to endorse transaction"), "peer0: injected endorsement failure")
	}
	rws := &txState{committed: state, writes: map[string][]byte{}}
	payload, err := l.invoker.Invoke(rws, p)
	if err != nil {
		return nil, newErr(driver.EndorseStage, errors.New("failed to endorse transaction"), err.Error())
	}
	if faulty && fault == driver.SubmitStage {
		return nil, newErr(fault, errors.New("failed to send transaction to the orderer"))
	}
	if faulty && fault == driver.CommitStage {
		return nil, &driver.TransactionError{Stage: fault, Function: function, TxID: txID, Code: "MVCC_READ_CONFLICT", Err: errors.New("transaction failed to commit")}
	}
	rws.apply()
	return payload, nil
}

func (l *Ledger) evaluate(channel, name string, p chaincode.Proposal) ([]byte, error) {
	function := p.Function
	l.mu.RLock()
	defer l.mu.RUnlock()
	state, err := l.namespaceState(channel, name)
	if err != nil {
		return nil, driver.NewEvaluateError(function, err)
	}
	rws := &txState{committed: state, writes: map[string][]byte{}}
	payload, err := l.invoker.Invoke(rws, p)
	if err != nil {
		return nil, driver.NewEvaluateError(function, errors.New("failed to evaluate transaction"), err.Error())
	}
	return payload, nil
}

func (l *Ledger) namespaceState(channel, name string) (map[string][]byte, error) {
	state, ok := l.namespaces[namespace(channel, name)]
	if !ok {
		return nil, errors.Errorf("chaincode [%s] is not deployed on channel [%s]", name, channel)
	}
	return state, nil
}

func namespace(channel, name string) string {
	return channel + "/" + name
}

// txState buffers the writes of a transaction until it commits.
type txState struct {
	committed map[string][]byte
	writes    map[string][]byte
}

func (s *txState) GetState(key string) ([]byte, error) {
	if v, ok := s.writes[key]; ok {
		return v, nil
	}
	return s.committed[key], nil
}

func (s *txState) PutState(key string, value []byte) error {
	s.writes[key] = value
	return nil
}

func (s *txState) DelState(key string) error {
	s.writes[key] = nil
	return nil
}

func (s *txState) apply() {
	for k, v := range s.writes {
		if v == nil {
			delete(s.committed, k)
			continue
		}
		s.committed[k] = v
	}
}
