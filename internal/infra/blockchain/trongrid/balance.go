package trongrid

import (
	"context"
	"fmt"

	"github.com/gabapcia/tronwatch/internal/chain"

	"github.com/shopspring/decimal"
)

// accountResponse is the /v1/accounts/{address} payload slice we consume:
// the native balance is reported in sun (1e-6 TRX).
type accountResponse struct {
	Data []struct {
		Balance int64 `json:"balance"`
	} `json:"data"`
	Success bool `json:"success"`
}

// trc20TokenResponse is the /v1/accounts/{address}/tokens/trc20 payload:
// balances come back as raw integer strings in the token's minimal unit.
type trc20TokenResponse struct {
	Data []struct {
		Balance string `json:"balance"`
	} `json:"data"`
	Success bool `json:"success"`
}

// GetBalance implements chain.Client. The returned amount is pre-scaled to
// 6 decimals; an account unknown to the chain reads as zero.
func (c *client) GetBalance(ctx context.Context, address string, token chain.TokenKind) (decimal.Decimal, error) {
	switch token {
	case chain.TokenTRX:
		return c.trxBalance(ctx, address)
	case chain.TokenUSDT:
		return c.usdtBalance(ctx, address)
	default:
		return decimal.Zero, fmt.Errorf("unsupported token kind %q", token)
	}
}

func (c *client) trxBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	var resp accountResponse
	if err := c.get(ctx, "/v1/accounts/"+address, nil, &resp); err != nil {
		return decimal.Zero, err
	}

	if len(resp.Data) == 0 {
		return decimal.Zero, nil
	}

	return decimal.New(resp.Data[0].Balance, -tokenDecimals), nil
}

func (c *client) usdtBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	var resp trc20TokenResponse
	query := map[string]string{"contract_address": c.usdtContract}
	if err := c.get(ctx, "/v1/accounts/"+address+"/tokens/trc20", query, &resp); err != nil {
		return decimal.Zero, err
	}

	if len(resp.Data) == 0 || resp.Data[0].Balance == "" {
		return decimal.Zero, nil
	}

	raw, err := decimal.NewFromString(resp.Data[0].Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: malformed balance %q", chain.ErrUnavailable, resp.Data[0].Balance)
	}

	return raw.Shift(-tokenDecimals), nil
}
