package public

import (
	"github.com/shopspring/decimal"
	"github.com/treeledger/blockchain/foundation/blockchain/database"
	"github.com/treeledger/blockchain/foundation/nameservice"
)

type tx struct {
	Hash       string             `json:"hash"`
	Input      database.AccountID `json:"inputPublicKey"`
	InputName  string             `json:"inputName,omitempty"`
	Output     database.AccountID `json:"outputPublicKey"`
	OutputName string             `json:"outputName,omitempty"`
	Amount     decimal.Decimal    `json:"amount"`
	Fee        decimal.Decimal    `json:"fee"`
	Timestamp  int64              `json:"timestamp"`
	Signature  string             `json:"signature"`
}

type block struct {
	Hash            string             `json:"hash"`
	BlockID         string             `json:"blockID"`
	ParentHash      string             `json:"parentHash"`
	Height          uint64             `json:"height"`
	Beneficiary     database.AccountID `json:"coinbaseBeneficiary"`
	BeneficiaryName string             `json:"coinbaseBeneficiaryName,omitempty"`
	Nonce           string             `json:"nonce"`
	Timestamp       int64              `json:"timestamp"`
	Difficulty      uint               `json:"difficulty"`
	Transactions    []tx               `json:"transactions"`
}

type blockDetail struct {
	block
	Balances []balance `json:"utxoPool"`
}

type balance struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name,omitempty"`
	Balance decimal.Decimal    `json:"balance"`
}

type balances struct {
	BlockHash string    `json:"blockHash"`
	Height    uint64    `json:"height"`
	Pending   int       `json:"pending"`
	Balances  []balance `json:"balances"`
}

// sendTx asks the node to sign a transaction with one of its identities.
type sendTx struct {
	From   string `json:"from" validate:"required,account"`
	To     string `json:"to" validate:"required,account"`
	Amount string `json:"amount" validate:"required,positive"`
	Fee    string `json:"fee" validate:"omitempty,number"`
}

type newIdentity struct {
	Name string `json:"name" validate:"required,max=64"`
}

// =============================================================================

func toTx(ns *nameservice.NameService, tran database.Transaction) tx {
	return tx{
		Hash:       tran.Hash,
		Input:      tran.InputOwner,
		InputName:  ns.Lookup(tran.InputOwner),
		Output:     tran.OutputOwner,
		OutputName: ns.Lookup(tran.OutputOwner),
		Amount:     tran.Amount,
		Fee:        tran.Fee,
		Timestamp:  tran.Timestamp,
		Signature:  tran.Signature,
	}
}

func toTxs(ns *nameservice.NameService, trans []database.Transaction) []tx {
	txs := make([]tx, len(trans))
	for i, tran := range trans {
		txs[i] = toTx(ns, tran)
	}
	return txs
}

func toBlock(ns *nameservice.NameService, blk *database.Block) block {
	return block{
		Hash:            blk.Hash(),
		BlockID:         blk.BlockID(),
		ParentHash:      blk.Header.ParentHash,
		Height:          blk.Header.Height,
		Beneficiary:     blk.Header.CoinbaseBeneficiary,
		BeneficiaryName: ns.Lookup(blk.Header.CoinbaseBeneficiary),
		Nonce:           blk.Header.Nonce,
		Timestamp:       blk.Header.Timestamp,
		Difficulty:      blk.Header.Difficulty,
		Transactions:    toTxs(ns, blk.Transactions()),
	}
}

func toBlocks(ns *nameservice.NameService, blks []*database.Block) []block {
	blocks := make([]block, len(blks))
	for i, blk := range blks {
		blocks[i] = toBlock(ns, blk)
	}
	return blocks
}

func toBalances(ns *nameservice.NameService, utxos []database.UTXO) []balance {
	bals := make([]balance, len(utxos))
	for i, utxo := range utxos {
		bals[i] = balance{
			Account: utxo.Owner,
			Name:    ns.Lookup(utxo.Owner),
			Balance: utxo.Amount,
		}
	}
	return bals
}
