package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/treeledger/blockchain/foundation/blockchain/database"
)

var (
	to     string
	amount string
	fee    string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account receiving the amount.")
	sendCmd.Flags().StringVarP(&amount, "amount", "v", "", "Amount to send.")
	sendCmd.Flags().StringVarP(&fee, "fee", "f", "0", "Fee paid to the miner.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return err
	}

	tran, err := newTx(privateKey.PublicKey, to, amount, fee)
	if err != nil {
		return err
	}

	if tran, err = tran.Sign(privateKey); err != nil {
		return err
	}

	data, err := json.Marshal(tran)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node returned %s: %s", resp.Status, body)
	}

	fmt.Println(tran.Hash)
	return nil
}

// newTx builds the unsigned transaction from the command line values.
func newTx(from ecdsa.PublicKey, to string, amount string, fee string) (database.Transaction, error) {
	toID, err := database.ToAccountID(to)
	if err != nil {
		return database.Transaction{}, err
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return database.Transaction{}, fmt.Errorf("amount: %w", err)
	}

	f, err := decimal.NewFromString(fee)
	if err != nil {
		return database.Transaction{}, fmt.Errorf("fee: %w", err)
	}

	tran := database.NewTransaction(database.PublicKeyToAccountID(from), toID, amt, f)
	if err := tran.Validate(); err != nil {
		return database.Transaction{}, err
	}

	return tran, nil
}
