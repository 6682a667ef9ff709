package ledger

// UnsignedTransaction is the transaction skeleton returned by an EBSI API
// node in response to an intent call (createDocument, timestampRecordHashes,
// grantAccess, ...). All quantity fields are hex strings exactly as the node
// returns them; the struct is consumed once by the wallet signer and echoed
// back verbatim in sendSignedTransaction.
type UnsignedTransaction struct {
	To       string `json:"to"`
	From     string `json:"from"`
	Data     string `json:"data"`
	Nonce    string `json:"nonce"`
	Value    string `json:"value"`
	ChainID  string `json:"chainId"`
	GasLimit string `json:"gasLimit"`
	GasPrice string `json:"gasPrice"`
}

// SignedTransaction carries the raw RLP-encoded signed transaction together
// with its signature components. EBSI nodes re-derive the signer from R, S
// and V and cross-check it against the unsigned payload, so a
// SignedTransaction must never be paired with a different
// UnsignedTransaction than the one it was produced from.
type SignedTransaction struct {
	SignedRawTransaction string `json:"signedRawTransaction"`
	R                    string `json:"r"`
	S                    string `json:"s"`
	V                    string `json:"v"`
}

// TransactionReceipt is the subset of eth_getTransactionReceipt the engine
// inspects. RevertReason being set means the transaction was included in a
// block but rolled back by the EVM; that outcome is terminal.
type TransactionReceipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	BlockHash       string `json:"blockHash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Status          string `json:"status"`
	RevertReason    string `json:"revertReason,omitempty"`
}

// SubmitResult is returned by Submit. Receipt is nil when the caller opted
// out of confirmation (waitMined=false); in that case TransactionHash is
// provisional and must not be treated as proof of inclusion.
type SubmitResult struct {
	TransactionHash string
	Receipt         *TransactionReceipt
}
