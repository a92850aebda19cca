package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

var erc20 = mustParseABI(erc20ABI)

// BalanceReader reads ERC-20 balances. It holds no state between calls.
type BalanceReader interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// ContractCaller is the read-only subset of an RPC client the reader needs.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type EthBalanceReader struct {
	caller ContractCaller
}

func NewEthBalanceReader(caller ContractCaller) *EthBalanceReader {
	return &EthBalanceReader{caller: caller}
}

// Dial connects to a JSON-RPC node and returns a reader over it.
func Dial(ctx context.Context, rpcURL string) (*EthBalanceReader, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rpc: %w", err)
	}
	return NewEthBalanceReader(client), client, nil
}

func (r *EthBalanceReader) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := erc20.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call: %w", err)
	}
	vals, err := erc20.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("balanceOf decode: %w", err)
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("balanceOf decode: got %d values", len(vals))
	}
	bal, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf decode: unexpected %T", vals[0])
	}
	return bal, nil
}

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
