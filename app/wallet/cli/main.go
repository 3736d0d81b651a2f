// This program is a simple wallet for the tree ledger.
package main

import "github.com/treeledger/blockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
