// Package nameservice maintains the identities of a node: key files in a
// folder, each named after the identity it holds.
package nameservice

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/treeledger/blockchain/foundation/blockchain/database"
)

// Set of errors returned by the name service.
var (
	ErrNotFound    = errors.New("identity not found")
	ErrInvalidName = errors.New("invalid identity name")
	ErrExists      = errors.New("identity already exists")
)

// validName restricts names to what is safe as a file name.
var validName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Identity is a named account.
type Identity struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
}

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	mu       sync.RWMutex
	root     string
	accounts map[database.AccountID]string
}

// New constructs a name service with the accounts of the .ecdsa files
// found under root.
func New(root string) (*NameService, error) {
	ns := NameService{
		root:     root,
		accounts: make(map[database.AccountID]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		account := database.PublicKeyToAccountID(privateKey.PublicKey)
		ns.accounts[account] = strings.TrimSuffix(path.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Generate creates a new key pair stored under the specified name.
func (ns *NameService) Generate(name string) (Identity, error) {
	if !validName.MatchString(name) {
		return Identity{}, fmt.Errorf("%w %q", ErrInvalidName, name)
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, err := os.Stat(ns.fileName(name)); err == nil {
		return Identity{}, fmt.Errorf("%w: %q", ErrExists, name)
	}

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return Identity{}, fmt.Errorf("generate key: %w", err)
	}

	if err := crypto.SaveECDSA(ns.fileName(name), privateKey); err != nil {
		return Identity{}, fmt.Errorf("save key: %w", err)
	}

	account := database.PublicKeyToAccountID(privateKey.PublicKey)
	ns.accounts[account] = name

	return Identity{Account: account, Name: name}, nil
}

// Rename changes the name of the account's identity.
func (ns *NameService) Rename(account database.AccountID, name string) (Identity, error) {
	if !validName.MatchString(name) {
		return Identity{}, fmt.Errorf("%w %q", ErrInvalidName, name)
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	current, exists := ns.accounts[account]
	if !exists {
		return Identity{}, ErrNotFound
	}

	if current == name {
		return Identity{Account: account, Name: name}, nil
	}

	if _, err := os.Stat(ns.fileName(name)); err == nil {
		return Identity{}, fmt.Errorf("%w: %q", ErrExists, name)
	}

	if err := os.Rename(ns.fileName(current), ns.fileName(name)); err != nil {
		return Identity{}, fmt.Errorf("rename key: %w", err)
	}

	ns.accounts[account] = name

	return Identity{Account: account, Name: name}, nil
}

// PrivateKey loads the key of the account's identity.
func (ns *NameService) PrivateKey(account database.AccountID) (*ecdsa.PrivateKey, error) {
	ns.mu.RLock()
	name, exists := ns.accounts[account]
	ns.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}

	return crypto.LoadECDSA(ns.fileName(name))
}

// Lookup returns the name for the specified account.
func (ns *NameService) Lookup(account database.AccountID) string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	name, exists := ns.accounts[account]
	if !exists {
		return string(account)
	}
	return name
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[database.AccountID]string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	cpy := make(map[database.AccountID]string, len(ns.accounts))
	for account, name := range ns.accounts {
		cpy[account] = name
	}
	return cpy
}

// Identities returns every identity ordered by name.
func (ns *NameService) Identities() []Identity {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	ids := make([]Identity, 0, len(ns.accounts))
	for account, name := range ns.accounts {
		ids = append(ids, Identity{Account: account, Name: name})
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Name < ids[j].Name
	})

	return ids
}

func (ns *NameService) fileName(name string) string {
	return filepath.Join(ns.root, name+".ecdsa")
}
