package database

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"strconv"
)

// Mine searches for a nonce that solves the proof of work at the block's
// difficulty. Pointer semantics are being used since a nonce is being
// discovered. The search checks the context between attempts, so a caller
// can abandon the block at any time.
func (b *Block) Mine(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: Mine: MINING: started: blk[%d]: difficulty[%d]", b.Header.Height, b.Header.Difficulty)
	defer ev("database: Mine: MINING: completed: blk[%d]", b.Header.Height)

	for _, tx := range b.trans.Values() {
		ev("database: Mine: MINING: tx[%s]", tx)
	}

	// Choose a random starting point for the nonce. After this, the nonce
	// will be incremented by 1 until a solution is found by us or another node.
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return err
	}
	nonce := nBig.Uint64()

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: Mine: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: Mine: MINING: CANCELLED")
			return ctx.Err()
		}

		b.SetNonce(strconv.FormatUint(nonce, 10))
		if !b.IsValid() {
			nonce++
			continue
		}

		ev("database: Mine: MINING: SOLVED: parent[%s]: blk[%s]", b.Header.ParentHash, b.hash)
		ev("database: Mine: MINING: attempts[%d]", attempts)

		return nil
	}
}
