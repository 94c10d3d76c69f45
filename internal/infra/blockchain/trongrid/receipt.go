package trongrid

import (
	"context"

	"github.com/gabapcia/tronwatch/internal/chain"
)

// receiptSuccess is the terminal success marker in TronGrid's
// receipt.result vocabulary.
const receiptSuccess = "SUCCESS"

// transactionInfoResponse is the /wallet/gettransactioninfobyid payload. The
// node answers with an empty object until the transaction lands in a block.
// TRC20 transfers report their outcome in receipt.result; simple TRX
// transfers carry no receipt.result and rely on the top-level result field,
// which is only present on failure.
type transactionInfoResponse struct {
	ID          string `json:"id"`
	BlockNumber int64  `json:"blockNumber"`
	Result      string `json:"result"` // "FAILED" on top-level failure, absent otherwise
	ResMessage  string `json:"resMessage"`
	Receipt     struct {
		Result string `json:"result"`
	} `json:"receipt"`
}

// GetReceipt implements chain.Client, mapping TronGrid's status vocabulary to
// the closed receipt variant so nothing above this adapter ever inspects raw
// chain strings.
func (c *client) GetReceipt(ctx context.Context, txID string) (chain.Receipt, error) {
	var resp transactionInfoResponse
	if err := c.post(ctx, "/wallet/gettransactioninfobyid", map[string]string{"value": txID}, &resp); err != nil {
		return chain.Receipt{}, err
	}

	if resp.ID == "" && resp.BlockNumber == 0 {
		return chain.Receipt{Status: chain.ReceiptPending}, nil
	}

	if resp.Result == "FAILED" {
		reason := decodeHexMessage(resp.ResMessage)
		if reason == "" {
			reason = resp.Receipt.Result
		}
		return chain.Receipt{Status: chain.ReceiptFailure, FailureReason: reason}, nil
	}

	if resp.Receipt.Result != "" && resp.Receipt.Result != receiptSuccess {
		return chain.Receipt{Status: chain.ReceiptFailure, FailureReason: resp.Receipt.Result}, nil
	}

	return chain.Receipt{Status: chain.ReceiptSuccess}, nil
}
