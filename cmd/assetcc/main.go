/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/chaincode"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger/fabric-chaincode-go/v2/shim"
)

type serverConfig struct {
	CCID               string
	CCaddress          string
	TLS                string
	LogLevel           string
	LogFormat          string
	TLSKey             string
	TLSCert            string
	TLSCACertsFilePath string
}

func main() {
	config := serverConfig{
		CCID:               os.Getenv("CHAINCODE_ID"),
		CCaddress:          os.Getenv("CHAINCODE_SERVER_ADDRESS"),
		LogLevel:           os.Getenv("CHAINCODE_LOG_LEVEL"),
		LogFormat:          os.Getenv("CHAINCODE_LOG_FORMAT"),
		TLS:                os.Getenv("CHAINCODE_TLS"),
		TLSKey:             os.Getenv("CHAINCODE_TLS_KEY"),
		TLSCert:            os.Getenv("CHAINCODE_TLS_CERT"),
		TLSCACertsFilePath: os.Getenv("CHAINCODE_TLS_CA_CERTS"),
	}
	if len(config.TLS) == 0 && len(config.TLSKey) > 0 {
		config.TLS = "true"
	}
	logging.Init(config.LogLevel, config.LogFormat)

	cc, err := chaincode.New()
	assertNoError(err, "cannot create chaincode")
	if config.CCID == "" || config.CCaddress == "" {
		fmt.Println("CC ID or CC address is empty... Running as usual...")
		assertNoError(shim.Start(cc), "cannot start chaincode")
		return
	}

	fmt.Println("Asset Chaincode CCID : " + config.CCID)
	fmt.Println("Asset Chaincode address : " + config.CCaddress)
	fmt.Println("Running Asset Chaincode as service ...")

	tlsProps := shim.TLSProperties{Disabled: true}
	if len(config.TLS) != 0 {
		enabled, err := strconv.ParseBool(config.TLS)
		assertNoError(err, "cannot parse [%s]", config.TLS)
		if enabled {
			tlsProps.Disabled = false
			tlsProps.Key, err = os.ReadFile(config.TLSKey)
			assertNoError(err, "cannot read tls key at [%s]", config.TLSKey)
			tlsProps.Cert, err = os.ReadFile(config.TLSCert)
			assertNoError(err, "cannot read tls cert at [%s]", config.TLSCert)
			tlsProps.ClientCACerts, err = os.ReadFile(config.TLSCACertsFilePath)
			assertNoError(err, "cannot read tls ca certs at [%s]", config.TLSCACertsFilePath)
		}
	}

	server := &shim.ChaincodeServer{
		CCID:     config.CCID,
		Address:  config.CCaddress,
		CC:       cc,
		TLSProps: tlsProps,
	}
	assertNoError(server.Start(), "Error starting Asset Chaincode")
}

func assertNoError(err error, format string, args ...interface{}) {
	if err != nil {
		panic(fmt.Sprintf(format+": [%s]", append(args, err)...))
	}
}
