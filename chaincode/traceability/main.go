package main

import (
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

func main() {
	cc, err := contractapi.NewChaincode(&TraceabilityContract{})
	if err != nil {
		log.Panicf("Error creating TraceabilityContract chaincode: %v", err)
	}
	if err := cc.Start(); err != nil {
		log.Panicf("Error starting TraceabilityContract chaincode: %v", err)
	}
}
