/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabric

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/metrics"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/network/driver"
	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Session owns a gateway connection and the gRPC connection under it.
type Session struct {
	gateway   *client.Gateway
	conn      *grpc.ClientConn
	endorsers []string
	metrics   *metrics.Metrics

	closeOnce sync.Once
	closeErr  error
}

func (s *Session) Channel(name string) driver.Channel {
	return &Channel{session: s, network: s.gateway.GetNetwork(name)}
}

// Close closes the gateway and then the gRPC connection. Further calls return the first outcome.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := s.gateway.Close(); err != nil {
			s.closeErr = errors.Wrap(err, "failed to close gateway")
		}
		if err := s.conn.Close(); err != nil && s.closeErr == nil {
			s.closeErr = errors.Wrap(err, "failed to close grpc connection")
		}
		if s.metrics != nil {
			s.metrics.SessionsOpen.Add(-1)
		}
	})
	return s.closeErr
}

type Channel struct {
	session *Session
	network *client.Network
}

func (c *Channel) Contract(name string) driver.Contract {
	return &Contract{session: c.session, contract: c.network.GetContract(name)}
}

type Contract struct {
	session  *Session
	contract *client.Contract
}

// Submit endorses the transaction, sends it to ordering and waits for its commit status.
func (c *Contract) Submit(ctx context.Context, function string, args ...string) (res []byte, err error) {
	done := c.session.metrics.Track(metrics.Submit, function)
	defer func() { done(err) }()

	opts := []client.ProposalOption{client.WithArguments(args...)}
	if len(c.session.endorsers) != 0 {
		opts = append(opts, client.WithEndorsingOrganizations(c.session.endorsers...))
	}
	proposal, err := c.contract.NewProposal(function, opts...)
	if err != nil {
		return nil, &driver.TransactionError{Stage: driver.EndorseStage, Function: function, Err: err}
	}
	txID := proposal.TransactionID()

	tx, err := proposal.EndorseWithContext(ctx)
	if err != nil {
		return nil, classify(driver.EndorseStage, function, txID, err)
	}
	commit, err := tx.SubmitWithContext(ctx)
	if err != nil {
		return nil, classify(driver.SubmitStage, function, txID, err)
	}
	st, err := commit.StatusWithContext(ctx)
	if err != nil {
		return nil, classify(driver.CommitStage, function, txID, err)
	}
	if !st.Successful {
		return nil, &driver.TransactionError{
			Stage:    driver.CommitStage,
			Function: function,
			TxID:     txID,
			Code:     st.Code.String(),
			Err:      errors.Errorf("transaction committed in block %d with status code %d", st.BlockNumber, int32(st.Code)),
		}
	}
	logger.Debugf("[%s] committed in block %d", txID, st.BlockNumber)
	return tx.Result(), nil
}

// Evaluate queries a single peer. A missing asset is reported as driver.ErrNotFound.
func (c *Contract) Evaluate(ctx context.Context, function string, args ...string) (res []byte, err error) {
	done := c.session.metrics.Track(metrics.Evaluate, function)
	defer func() { done(err) }()

	proposal, err := c.contract.NewProposal(function, client.WithArguments(args...))
	if err != nil {
		return nil, &driver.TransactionError{Stage: driver.EvaluateStage, Function: function, Err: err}
	}
	res, err = proposal.EvaluateWithContext(ctx)
	if err != nil {
		return nil, classify(driver.EvaluateStage, function, proposal.TransactionID(), err)
	}
	return res, nil
}

// classify converts a gateway error into a TransactionError, extracting the gRPC code and the peer details.
func classify(stage driver.Stage, function, txID string, err error) *driver.TransactionError {
	var details []string
	code := ""
	if st, ok := status.FromError(err); ok {
		code = st.Code().String()
		for _, d := range st.Details() {
			if ed, ok := d.(*gateway.ErrorDetail); ok {
				details = append(details, fmt.Sprintf("%s (%s): %s", ed.GetAddress(), ed.GetMspId(), ed.GetMessage()))
			}
		}
	} else if errors.Is(err, context.DeadlineExceeded) {
		code = codes.DeadlineExceeded.String()
	} else if errors.Is(err, context.Canceled) {
		code = codes.Canceled.String()
	}

	if stage == driver.EvaluateStage {
		e := driver.NewEvaluateError(function, err, details...)
		e.TxID = txID
		e.Code = code
		return e
	}
	return &driver.TransactionError{Stage: stage, Function: function, TxID: txID, Code: code, Details: details, Err: err}
}
