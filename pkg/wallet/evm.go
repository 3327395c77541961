package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"relay-bridge/pkg/relay"
)

// EVMWallet holds a private key bound to one EVM chain and can read the
// account balance and submit route transactions.
type EVMWallet struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
}

// NewEVMWallet connects to the RPC endpoint and derives the account address
func NewEVMWallet(ctx context.Context, rpcURL, privateKeyHex string) (*EVMWallet, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL is required")
	}
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key is required")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to get public key")
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	return &EVMWallet{
		client:     client,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*publicKey),
		chainID:    chainID,
	}, nil
}

// AddressFromKey derives the account address for a hex private key without
// connecting to a node. Used for preview quoting.
func AddressFromKey(privateKeyHex string) (string, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("failed to get public key")
	}
	return crypto.PubkeyToAddress(*publicKey).Hex(), nil
}

// Address returns the connected account address
func (w *EVMWallet) Address() string {
	return w.address.Hex()
}

// ChainID returns the chain the wallet is connected to
func (w *EVMWallet) ChainID() int64 {
	return w.chainID.Int64()
}

// Balance returns the account's native balance in base units (wei)
func (w *EVMWallet) Balance(ctx context.Context) (*big.Int, error) {
	balance, err := w.client.BalanceAt(ctx, w.address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// SendTransaction signs and submits a route transaction, returning its hash
func (w *EVMWallet) SendTransaction(ctx context.Context, txData relay.TxData) (string, error) {
	if txData.To == "" || !common.IsHexAddress(txData.To) {
		return "", fmt.Errorf("invalid recipient address: %s", txData.To)
	}
	if txData.ChainID != 0 && txData.ChainID != w.chainID.Int64() {
		return "", fmt.Errorf("transaction targets chain %d but wallet is connected to chain %d", txData.ChainID, w.chainID.Int64())
	}

	to := common.HexToAddress(txData.To)
	value, err := parseBig(txData.Value)
	if err != nil {
		return "", fmt.Errorf("invalid transaction value: %w", err)
	}
	callData := common.FromHex(txData.Data)

	nonce, err := w.client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasLimit, err := w.gasLimit(ctx, txData, to, value, callData)
	if err != nil {
		return "", err
	}

	feeCap, tipCap, err := w.feeCaps(ctx, txData)
	if err != nil {
		return "", err
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   w.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      callData,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := w.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash().Hex(), nil
}

// gasLimit uses the quoted gas when present, otherwise estimates
func (w *EVMWallet) gasLimit(ctx context.Context, txData relay.TxData, to common.Address, value *big.Int, callData []byte) (uint64, error) {
	if txData.Gas != "" {
		gas, err := parseBig(txData.Gas)
		if err != nil {
			return 0, fmt.Errorf("invalid gas limit: %w", err)
		}
		return gas.Uint64(), nil
	}

	gas, err := w.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  w.address,
		To:    &to,
		Value: value,
		Data:  callData,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return gas, nil
}

// feeCaps uses the quoted fee caps when present, otherwise asks the node
func (w *EVMWallet) feeCaps(ctx context.Context, txData relay.TxData) (feeCap, tipCap *big.Int, err error) {
	if txData.MaxFeePerGas != "" {
		feeCap, err = parseBig(txData.MaxFeePerGas)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid max fee per gas: %w", err)
		}
		tipCap = feeCap
		if txData.MaxPriorityFeePerGas != "" {
			tipCap, err = parseBig(txData.MaxPriorityFeePerGas)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid max priority fee per gas: %w", err)
			}
		}
		return feeCap, tipCap, nil
	}

	tipCap, err = w.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get gas tip cap: %w", err)
	}
	head, err := w.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get chain head: %w", err)
	}
	// fee cap = 2*baseFee + tip, the go-ethereum default heuristic
	feeCap = new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tipCap)
	return feeCap, tipCap, nil
}

func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", s)
	}
	return value, nil
}
