package trongrid

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gabapcia/tronwatch/internal/chain"

	"github.com/fbsobreira/gotron-sdk/pkg/address"
	"github.com/shopspring/decimal"
)

// trc20TransferResponse is the /v1/accounts/{address}/transactions/trc20
// payload. Values are raw integer strings; timestamps are Unix milliseconds.
type trc20TransferResponse struct {
	Data []struct {
		TransactionID  string `json:"transaction_id"`
		From           string `json:"from"`
		To             string `json:"to"`
		Value          string `json:"value"`
		BlockTimestamp int64  `json:"block_timestamp"`
		Block          int64  `json:"block"`
	} `json:"data"`
	Success bool `json:"success"`
}

// nativeTransferResponse is the /v1/accounts/{address}/transactions payload,
// reduced to TransferContract entries. Owner and recipient addresses come
// back hex-encoded.
type nativeTransferResponse struct {
	Data []struct {
		TxID           string `json:"txID"`
		BlockNumber    int64  `json:"blockNumber"`
		BlockTimestamp int64  `json:"block_timestamp"`
		RawData        struct {
			Contract []struct {
				Type      string `json:"type"`
				Parameter struct {
					Value struct {
						Amount       int64  `json:"amount"`
						OwnerAddress string `json:"owner_address"`
						ToAddress    string `json:"to_address"`
					} `json:"value"`
				} `json:"parameter"`
			} `json:"contract"`
		} `json:"raw_data"`
	} `json:"data"`
	Success bool `json:"success"`
}

// GetInboundTransfers implements chain.Client. Records come back most recent
// first, as delivered by TronGrid.
func (c *client) GetInboundTransfers(ctx context.Context, addr string, token chain.TokenKind, limit int) ([]chain.TransferRecord, error) {
	switch token {
	case chain.TokenTRX:
		return c.nativeTransfers(ctx, addr, limit)
	case chain.TokenUSDT:
		return c.trc20Transfers(ctx, addr, limit)
	default:
		return nil, fmt.Errorf("unsupported token kind %q", token)
	}
}

func (c *client) trc20Transfers(ctx context.Context, addr string, limit int) ([]chain.TransferRecord, error) {
	var resp trc20TransferResponse
	query := map[string]string{
		"limit":            strconv.Itoa(limit),
		"contract_address": c.usdtContract,
		"only_to":          "true",
	}
	if err := c.get(ctx, "/v1/accounts/"+addr+"/transactions/trc20", query, &resp); err != nil {
		return nil, err
	}

	records := make([]chain.TransferRecord, 0, len(resp.Data))
	for _, tx := range resp.Data {
		amount, err := decimal.NewFromString(tx.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed transfer value %q in tx %s", chain.ErrUnavailable, tx.Value, tx.TransactionID)
		}

		records = append(records, chain.TransferRecord{
			TxID:        tx.TransactionID,
			From:        tx.From,
			To:          tx.To,
			Token:       chain.TokenUSDT,
			Amount:      amount.Shift(-tokenDecimals),
			BlockHeight: tx.Block,
			BlockTime:   time.UnixMilli(tx.BlockTimestamp).UTC(),
		})
	}

	return records, nil
}

func (c *client) nativeTransfers(ctx context.Context, addr string, limit int) ([]chain.TransferRecord, error) {
	var resp nativeTransferResponse
	query := map[string]string{
		"limit":   strconv.Itoa(limit),
		"only_to": "true",
	}
	if err := c.get(ctx, "/v1/accounts/"+addr+"/transactions", query, &resp); err != nil {
		return nil, err
	}

	var records []chain.TransferRecord
	for _, tx := range resp.Data {
		if len(tx.RawData.Contract) == 0 || tx.RawData.Contract[0].Type != "TransferContract" {
			continue
		}

		value := tx.RawData.Contract[0].Parameter.Value
		from, err := hexToBase58(value.OwnerAddress)
		if err != nil {
			return nil, err
		}
		to, err := hexToBase58(value.ToAddress)
		if err != nil {
			return nil, err
		}

		records = append(records, chain.TransferRecord{
			TxID:        tx.TxID,
			From:        from,
			To:          to,
			Token:       chain.TokenTRX,
			Amount:      decimal.New(value.Amount, -tokenDecimals),
			BlockHeight: tx.BlockNumber,
			BlockTime:   time.UnixMilli(tx.BlockTimestamp).UTC(),
		})
	}

	return records, nil
}

// hexToBase58 converts a 41-prefixed hex Tron address to base58check.
func hexToBase58(hexAddr string) (string, error) {
	parsed := address.HexToAddress(hexAddr)
	if parsed == nil {
		return "", fmt.Errorf("%w: malformed address %q", chain.ErrUnavailable, hexAddr)
	}
	return parsed.String(), nil
}
