package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const mintABI = `[{"inputs":[{"name":"to","type":"address"},{"name":"uri","type":"string"}],"name":"mint","outputs":[],"stateMutability":"payable","type":"function"}]`

var mintContract = mustParseABI(mintABI)

// UnsignedTx is handed to the wallet client for signing and broadcast.
// Value is hex so it survives JSON number limits.
type UnsignedTx struct {
	To      string `json:"to"`
	Value   string `json:"value"`
	ChainID int64  `json:"chainId"`
	Data    string `json:"data"`
}

// MintPreparer builds mint transactions. It never signs or broadcasts.
type MintPreparer struct {
	contract common.Address
	chainID  int64
	price    *big.Int
}

// NewMintPreparer fails with ErrInvalidContract when the deployment is misconfigured.
func NewMintPreparer(contract string, chainID int64, priceWei string) (*MintPreparer, error) {
	if strings.TrimSpace(contract) == "" {
		return nil, fmt.Errorf("%w: NFT_CONTRACT_ADDRESS is not set", ErrInvalidContract)
	}
	addr, err := ParseAddress(contract)
	if err != nil {
		return nil, fmt.Errorf("%w: NFT_CONTRACT_ADDRESS %q is malformed", ErrInvalidContract, contract)
	}
	price, ok := new(big.Int).SetString(strings.TrimSpace(priceWei), 10)
	if !ok || price.Sign() < 0 {
		return nil, fmt.Errorf("%w: MINT_PRICE_WEI %q is not a non-negative integer", ErrInvalidContract, priceWei)
	}
	return &MintPreparer{contract: addr, chainID: chainID, price: price}, nil
}

func (p *MintPreparer) Prepare(recipient, imageURL string) (*UnsignedTx, error) {
	to, err := ParseAddress(recipient)
	if err != nil {
		return nil, err
	}
	data, err := mintContract.Pack("mint", to, imageURL)
	if err != nil {
		return nil, fmt.Errorf("encode mint: %w", err)
	}
	return &UnsignedTx{
		To:      p.contract.Hex(),
		Value:   hexutil.EncodeBig(p.price),
		ChainID: p.chainID,
		Data:    hexutil.Encode(data),
	}, nil
}
