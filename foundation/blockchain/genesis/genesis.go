// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time `json:"date"`            // The timestamp of the genesis block.
	Name          string    `json:"name"`            // The chain name; it is the nonce of the genesis block.
	TransPerBlock uint16    `json:"trans_per_block"` // The maximum number of transactions a mined block picks from the mempool.
}

// Default returns the parameters used when no genesis file is provided.
func Default(name string) Genesis {
	return Genesis{
		Date:          time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Name:          name,
		TransPerBlock: 10,
	}
}

// Timestamp returns the genesis date in milliseconds since the epoch.
func (g Genesis) Timestamp() int64 {
	return g.Date.UnixMilli()
}

// Validate checks the genesis values are usable.
func (g Genesis) Validate() error {
	if g.Name == "" {
		return errors.New("genesis: name is required")
	}

	if g.Date.IsZero() {
		return errors.New("genesis: date is required")
	}

	return nil
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	if genesis.TransPerBlock == 0 {
		genesis.TransPerBlock = Default(genesis.Name).TransPerBlock
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
