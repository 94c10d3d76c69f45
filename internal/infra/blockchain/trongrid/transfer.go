package trongrid

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/gabapcia/tronwatch/internal/chain"

	"github.com/fbsobreira/gotron-sdk/pkg/address"
	"github.com/shopspring/decimal"
)

// trc20FeeLimit is the maximum energy fee (in sun) a TRC20 transfer may burn.
const trc20FeeLimit = 10_000_000

// createTransactionResponse is the unsigned transaction returned by
// /wallet/createtransaction. The full body is forwarded to the signer
// untouched; only txID and the node error are inspected here.
type createTransactionResponse struct {
	TxID  string `json:"txID"`
	Error string `json:"Error"`
}

// triggerSmartContractResponse is the /wallet/triggersmartcontract payload.
type triggerSmartContractResponse struct {
	Result struct {
		Result  bool   `json:"result"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"result"`
	Transaction json.RawMessage `json:"transaction"`
}

// broadcastResponse is the /wallet/broadcasttransaction payload.
type broadcastResponse struct {
	Result  bool   `json:"result"`
	TxID    string `json:"txid"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SubmitTransfer implements chain.Client. It builds the unsigned transaction
// on the node, hands it to the opaque signer, and broadcasts the signed form.
// A node refusal at either step maps to chain.ErrRejected.
func (c *client) SubmitTransfer(ctx context.Context, target string, amount decimal.Decimal, token chain.TokenKind, signer chain.Signer) (string, error) {
	var (
		unsigned []byte
		err      error
	)
	switch token {
	case chain.TokenTRX:
		unsigned, err = c.buildNativeTransfer(ctx, signer.Address(), target, amount)
	case chain.TokenUSDT:
		unsigned, err = c.buildTRC20Transfer(ctx, signer.Address(), target, amount)
	default:
		return "", fmt.Errorf("unsupported token kind %q", token)
	}
	if err != nil {
		return "", err
	}

	signed, err := signer.Sign(ctx, unsigned)
	if err != nil {
		return "", fmt.Errorf("signing transfer: %w", err)
	}

	return c.broadcast(ctx, signed)
}

// buildNativeTransfer asks the node for an unsigned TRX TransferContract.
func (c *client) buildNativeTransfer(ctx context.Context, owner, target string, amount decimal.Decimal) ([]byte, error) {
	body := map[string]any{
		"owner_address": owner,
		"to_address":    target,
		"amount":        amount.Shift(tokenDecimals).IntPart(),
		"visible":       true,
	}

	var raw json.RawMessage
	if err := c.post(ctx, "/wallet/createtransaction", body, &raw); err != nil {
		return nil, err
	}

	var resp createTransactionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding unsigned transaction: %v", chain.ErrUnavailable, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", chain.ErrRejected, resp.Error)
	}
	if resp.TxID == "" {
		return nil, fmt.Errorf("%w: node returned no transaction", chain.ErrRejected)
	}

	return raw, nil
}

// buildTRC20Transfer asks the node for an unsigned transfer(address,uint256)
// call against the USDT contract.
func (c *client) buildTRC20Transfer(ctx context.Context, owner, target string, amount decimal.Decimal) ([]byte, error) {
	parameter, err := encodeTransferParameter(target, amount)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"owner_address":     owner,
		"contract_address":  c.usdtContract,
		"function_selector": "transfer(address,uint256)",
		"parameter":         parameter,
		"fee_limit":         trc20FeeLimit,
		"call_value":        0,
		"visible":           true,
	}

	var resp triggerSmartContractResponse
	if err := c.post(ctx, "/wallet/triggersmartcontract", body, &resp); err != nil {
		return nil, err
	}

	if !resp.Result.Result {
		return nil, fmt.Errorf("%w: %s %s", chain.ErrRejected, resp.Result.Code, decodeHexMessage(resp.Result.Message))
	}
	if len(resp.Transaction) == 0 {
		return nil, fmt.Errorf("%w: node returned no transaction", chain.ErrRejected)
	}

	return resp.Transaction, nil
}

// broadcast sends the signed transaction to the node and returns the
// chain-assigned transaction id.
func (c *client) broadcast(ctx context.Context, signed []byte) (string, error) {
	var resp broadcastResponse
	if err := c.post(ctx, "/wallet/broadcasttransaction", json.RawMessage(signed), &resp); err != nil {
		return "", err
	}

	if !resp.Result {
		return "", fmt.Errorf("%w: %s %s", chain.ErrRejected, resp.Code, decodeHexMessage(resp.Message))
	}

	return resp.TxID, nil
}

// encodeTransferParameter ABI-encodes the (address,uint256) arguments of a
// TRC20 transfer: the 20-byte address and the raw amount, each left-padded to
// 32 bytes.
func encodeTransferParameter(target string, amount decimal.Decimal) (string, error) {
	parsed, err := address.Base58ToAddress(target)
	if err != nil {
		return "", fmt.Errorf("%w: malformed address %q", chain.ErrRejected, target)
	}

	// Strip the 0x41 network prefix; the EVM-style ABI wants the bare 20 bytes.
	addrWord := new(big.Int).SetBytes(parsed[1:])

	raw := amount.Shift(tokenDecimals).BigInt()
	return fmt.Sprintf("%064x%064x", addrWord, raw), nil
}

// decodeHexMessage best-effort decodes the hex-encoded error message TronGrid
// returns alongside rejection codes.
func decodeHexMessage(msg string) string {
	decoded, err := hex.DecodeString(msg)
	if err != nil || len(decoded) == 0 {
		return msg
	}
	return string(decoded)
}
