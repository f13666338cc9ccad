package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract pairs a deployed address with its event ABI.
type Contract struct {
	Address common.Address
	ABI     abi.ABI
}

func NewContract(addr common.Address, abi abi.ABI) *Contract {
	return &Contract{
		Address: addr,
		ABI:     abi,
	}
}

// EventID returns the topic0 hash for the named event. It panics if the
// event is not declared in the ABI.
func (c *Contract) EventID(name string) common.Hash {
	event, ok := c.ABI.Events[name]
	if !ok {
		panic(fmt.Sprintf("event %s is not in the contract ABI", name))
	}
	return event.ID
}

// ParseLog decodes a raw log against the contract ABI. It returns the event
// name and the unpacked values. An empty name with a nil error means the log
// does not match any declared event.
func (c *Contract) ParseLog(log types.Log) (string, map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return "", nil, fmt.Errorf("cannot process event without topics")
	}
	event := findMatchingEventABI(c.ABI, log.Topics)
	if event == nil {
		return "", nil, nil
	}
	values, err := decodeEventLog(event, log.Topics, log.Data)
	if err != nil {
		return "", nil, fmt.Errorf("can't decode %s event log: %w", event.Name, err)
	}
	return event.Name, values, nil
}

func indexed(args abi.Arguments) abi.Arguments {
	var indexed abi.Arguments
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func findMatchingEventABI(contractABI abi.ABI, topics []common.Hash) *abi.Event {
	for _, e := range contractABI.Events {
		if e.ID == topics[0] {
			if len(indexed(e.Inputs)) == len(topics)-1 {
				e := e
				return &e
			}
		}
	}
	return nil
}

func decodeEventLog(event *abi.Event, topics []common.Hash, data []byte) (map[string]interface{}, error) {
	indexedArgs := indexed(event.Inputs)
	values := make(map[string]interface{})
	if len(indexedArgs) < len(event.Inputs) {
		if err := event.Inputs.UnpackIntoMap(values, data); err != nil {
			return nil, fmt.Errorf("can't unpack data: %w", err)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexedArgs, topics[1:]); err != nil {
		return nil, fmt.Errorf("can't unpack topics: %w", err)
	}
	return values, nil
}
