// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/cache"
	"github.com/yodynetwork/yody/kv"
	"github.com/yodynetwork/yody/stackedmap"
	"github.com/yodynetwork/yody/trie"
	"github.com/yodynetwork/yody/yody"
)

const (
	// AccountTrieName is the name of account trie.
	AccountTrieName = "a"
	// UTXOTrieName is the name of the trie keeping vins.
	UTXOTrieName = "u"
	// StorageTrieNamePrefix prefixes names of storage tries.
	StorageTrieNamePrefix = "s"

	codeStoreName = "c"
)

// ErrInsufficientBalance is returned when subtracting more than the balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

var codeCache, _ = cache.NewLRU(512)

// StorageTrieName returns the name of the storage trie of the given account.
func StorageTrieName(addr yody.Address) kv.Bucket {
	return kv.Bucket(StorageTrieNamePrefix + string(addr[:]))
}

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Cause returns the underlying error.
func (e *Error) Cause() error {
	return e.cause
}

// State is the ledger overlay over the account trie and the UTXO trie.
// Changes are buffered in a revertable overlay until Commit, which moves them
// into the tries. Flush then persists both tries in one batch.
type State struct {
	db           kv.Store
	accountTrie  *trie.Trie
	utxoTrie     *trie.Trie
	storageTries map[yody.Address]*trie.Trie
	codeStore    kv.Getter
	codes        map[yody.Bytes32][]byte // committed but not flushed

	sm        *stackedmap.StackedMap[any, any]
	changes   []Change
	marks     []int // change log length at each checkpoint
	transfers []*Transfer
}

// New create state object over the latest tries in db.
func New(db kv.Store) *State {
	s := &State{
		db:           db,
		accountTrie:  trie.New(AccountTrieName, db),
		utxoTrie:     trie.New(UTXOTrieName, db),
		storageTries: make(map[yody.Address]*trie.Trie),
		codeStore:    kv.Bucket(codeStoreName).NewGetter(db),
		codes:        make(map[yody.Bytes32][]byte),
	}
	s.resetOverlay()
	return s
}

func (s *State) resetOverlay() {
	s.sm = stackedmap.New(s.cacheGetter)
	s.changes = nil
	s.marks = nil
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (any, bool, error) {
	switch k := key.(type) {
	case yody.Address: // get account
		a, err := loadAccount(s.accountTrie, k)
		if err != nil {
			return nil, false, err
		}
		return a, true, nil
	case vinKey:
		v, err := loadVin(s.utxoTrie, yody.Address(k))
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	case codeKey:
		a, err := s.getAccount(yody.Address(k))
		if err != nil {
			return nil, false, err
		}
		if a == nil || len(a.CodeHash) == 0 {
			return []byte(nil), true, nil
		}
		code, err := s.loadCode(yody.BytesToBytes32(a.CodeHash))
		if err != nil {
			return nil, false, err
		}
		return code, true, nil
	case storageKey:
		// the address was ever killed in the life-cycle of this overlay.
		// treat its storage as an empty set.
		if k.barrier != 0 {
			return rlp.RawValue(nil), true, nil
		}
		v, err := s.storageTrie(k.addr).Get(k.key[:])
		if err != nil {
			return nil, false, err
		}
		return rlp.RawValue(v), true, nil
	case storageBarrierKey: // 0 as initial value
		return 0, true, nil
	case killedKey:
		return false, true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func (s *State) loadCode(hash yody.Bytes32) ([]byte, error) {
	if code, ok := s.codes[hash]; ok {
		return code, nil
	}
	code, err := codeCache.GetOrLoad(hash, func(any) (any, error) {
		code, err := s.codeStore.Get(hash[:])
		if err != nil {
			if s.codeStore.IsNotFound(err) {
				return nil, errors.Errorf("code %v not found", hash)
			}
			return nil, err
		}
		return code, nil
	})
	if err != nil {
		return nil, err
	}
	return code.([]byte), nil
}

func (s *State) storageTrie(addr yody.Address) *trie.Trie {
	if t, ok := s.storageTries[addr]; ok {
		return t
	}
	t := trie.New(StorageTrieName(addr), s.db)
	s.storageTries[addr] = t
	return t
}

// getAccount gets account by address, nil if not exist.
// The returned account should not be modified.
func (s *State) getAccount(addr yody.Address) (*Account, error) {
	v, _, err := s.sm.Get(addr)
	if err != nil {
		return nil, err
	}
	return v.(*Account), nil
}

// getAccountCopy get a copy of account by address, an empty one if not exist.
func (s *State) getAccountCopy(addr yody.Address) (Account, error) {
	a, err := s.getAccount(addr)
	if err != nil {
		return Account{}, err
	}
	if a == nil {
		return *emptyAccount(), nil
	}
	return *a, nil
}

func (s *State) updateAccount(addr yody.Address, a *Account) {
	s.sm.Put(addr, a)
}

func (s *State) getStorageBarrier(addr yody.Address) int {
	b, _, _ := s.sm.Get(storageBarrierKey(addr))
	return b.(int)
}

func (s *State) isKilled(addr yody.Address) bool {
	v, _, _ := s.sm.Get(killedKey(addr))
	return v.(bool)
}

// Exists returns whether an account exists at the given address.
func (s *State) Exists(addr yody.Address) (bool, error) {
	a, err := s.getAccount(addr)
	if err != nil {
		return false, &Error{err}
	}
	return a != nil, nil
}

// IsEmpty returns whether the account not exist or is empty.
func (s *State) IsEmpty(addr yody.Address) (bool, error) {
	a, err := s.getAccount(addr)
	if err != nil {
		return false, &Error{err}
	}
	return a == nil || a.IsEmpty(), nil
}

// IsContract returns whether an alive account with code exists at the given address.
func (s *State) IsContract(addr yody.Address) (bool, error) {
	a, err := s.getAccount(addr)
	if err != nil {
		return false, &Error{err}
	}
	return a != nil && len(a.CodeHash) > 0 && !s.isKilled(addr), nil
}

// GetBalance returns balance for the given address.
func (s *State) GetBalance(addr yody.Address) (*uint256.Int, error) {
	a, err := s.getAccount(addr)
	if err != nil {
		return nil, &Error{err}
	}
	if a == nil {
		return new(uint256.Int), nil
	}
	return a.Balance.Clone(), nil
}

// AddBalance credits amount to the account, creating it if not exist.
// The first modification of an existing empty account is logged as Touch.
func (s *State) AddBalance(addr yody.Address, amount *uint256.Int) error {
	return s.addBalance(addr, amount.ToBig(), func(balance *uint256.Int) *uint256.Int {
		return new(uint256.Int).Add(balance, amount)
	})
}

// SubBalance debits amount from the account.
// ErrInsufficientBalance returned if the balance is not enough.
func (s *State) SubBalance(addr yody.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	a, err := s.getAccount(addr)
	if err != nil {
		return &Error{err}
	}
	if a == nil || a.Balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	return s.addBalance(addr, new(big.Int).Neg(amount.ToBig()), func(balance *uint256.Int) *uint256.Int {
		return new(uint256.Int).Sub(balance, amount)
	})
}

func (s *State) addBalance(addr yody.Address, delta *big.Int, apply func(*uint256.Int) *uint256.Int) error {
	a, err := s.getAccount(addr)
	if err != nil {
		return &Error{err}
	}
	var cpy Account
	if a != nil {
		if !s.sm.IsDirty(addr) && a.IsEmpty() {
			s.changes = append(s.changes, Change{Kind: Touch, Address: addr})
		}
		cpy = *a
	} else {
		cpy = *emptyAccount()
	}
	cpy.Balance = apply(cpy.Balance)
	s.updateAccount(addr, &cpy)

	if delta.Sign() != 0 {
		s.changes = append(s.changes, Change{Kind: Balance, Address: addr, Value: delta})
	}
	return nil
}

// TransferBalance moves value from one account to another.
// Positive transfers are recorded, and never reverted by RevertTo.
func (s *State) TransferBalance(from, to yody.Address, value *uint256.Int) error {
	if err := s.SubBalance(from, value); err != nil {
		return err
	}
	if err := s.AddBalance(to, value); err != nil {
		return err
	}
	if !value.IsZero() {
		s.transfers = append(s.transfers, &Transfer{From: from, To: to, Value: value.Clone()})
	}
	return nil
}

// GetNonce returns nonce for the given address.
func (s *State) GetNonce(addr yody.Address) (uint64, error) {
	a, err := s.getAccount(addr)
	if err != nil {
		return 0, &Error{err}
	}
	if a == nil {
		return 0, nil
	}
	return a.Nonce, nil
}

// SetNonce set nonce for the given address.
func (s *State) SetNonce(addr yody.Address, nonce uint64) error {
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.Nonce = nonce
	s.updateAccount(addr, &cpy)
	return nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr yody.Address, key yody.Bytes32) (yody.Bytes32, error) {
	raw, _, err := s.sm.Get(storageKey{addr, s.getStorageBarrier(addr), key})
	if err != nil {
		return yody.Bytes32{}, &Error{err}
	}
	if len(raw.(rlp.RawValue)) == 0 {
		return yody.Bytes32{}, nil
	}
	_, content, _, err := rlp.Split(raw.(rlp.RawValue))
	if err != nil {
		return yody.Bytes32{}, &Error{err}
	}
	return yody.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr yody.Address, key, value yody.Bytes32) {
	var raw rlp.RawValue
	if !value.IsZero() {
		raw, _ = rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	}
	s.sm.Put(storageKey{addr, s.getStorageBarrier(addr), key}, raw)
}

// GetCode returns code for the given address.
func (s *State) GetCode(addr yody.Address) ([]byte, error) {
	v, _, err := s.sm.Get(codeKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	return v.([]byte), nil
}

// GetCodeHash returns code hash for the given address.
func (s *State) GetCodeHash(addr yody.Address) (yody.Bytes32, error) {
	a, err := s.getAccount(addr)
	if err != nil {
		return yody.Bytes32{}, &Error{err}
	}
	if a == nil {
		return yody.Bytes32{}, nil
	}
	return yody.BytesToBytes32(a.CodeHash), nil
}

// SetCode set code for the given address.
func (s *State) SetCode(addr yody.Address, code []byte) error {
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	if len(code) > 0 {
		s.sm.Put(codeKey(addr), code)
		cpy.CodeHash = crypto.Keccak256(code)
	} else {
		s.sm.Put(codeKey(addr), []byte(nil))
		cpy.CodeHash = nil
	}
	s.updateAccount(addr, &cpy)
	return nil
}

// GetVin returns a copy of the vin of the given address, nil if not exist.
func (s *State) GetVin(addr yody.Address) (*Vin, error) {
	v, _, err := s.sm.Get(vinKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	if vin := v.(*Vin); vin != nil {
		return vin.Copy(), nil
	}
	return nil, nil
}

// Kill destroys the account and marks its vin dead.
// Killed accounts are removed from the trie on Commit.
func (s *State) Kill(addr yody.Address) error {
	a, err := s.getAccount(addr)
	if err != nil {
		return &Error{err}
	}
	if a != nil {
		s.sm.Put(codeKey(addr), []byte(nil))
		s.updateAccount(addr, emptyAccount())
		s.sm.Put(killedKey(addr), true)
		// increase the barrier value
		s.sm.Put(storageBarrierKey(addr), s.getStorageBarrier(addr)+1)
	}

	vin, err := s.GetVin(addr)
	if err != nil {
		return err
	}
	if vin != nil {
		vin.Alive = 0
		s.sm.Put(vinKey(addr), vin)
	}
	return nil
}

// DeleteAccounts kills every account in the set.
func (s *State) DeleteAccounts(addrs AddressSet) error {
	for addr := range addrs {
		if err := s.Kill(addr); err != nil {
			return err
		}
	}
	return nil
}

// UpdateUTXO applies vin updates. An update of an absent vin is
// applied only if the new vin is alive.
func (s *State) UpdateUTXO(vins map[yody.Address]*Vin) error {
	for addr, v := range vins {
		cur, err := s.GetVin(addr)
		if err != nil {
			return err
		}
		if cur != nil || v.IsAlive() {
			s.sm.Put(vinKey(addr), v.Copy())
		}
	}
	return nil
}

// Vins returns all alive vins, including uncommitted ones.
func (s *State) Vins() (map[yody.Address]*Vin, error) {
	vins := make(map[yody.Address]*Vin)
	dirty := make(map[yody.Address]bool)
	s.sm.Journal(func(k, _ any) bool {
		if key, ok := k.(vinKey); ok {
			dirty[yody.Address(key)] = true
		}
		return true
	})
	for addr := range dirty {
		v, err := s.GetVin(addr)
		if err != nil {
			return nil, err
		}
		if v != nil && v.IsAlive() {
			vins[addr] = v
		}
	}

	var derr error
	if err := s.utxoTrie.Iterate(func(k, data []byte) bool {
		addr := yody.BytesToAddress(k)
		if dirty[addr] {
			return true
		}
		var v Vin
		if derr = rlp.DecodeBytes(data, &v); derr != nil {
			return false
		}
		vins[addr] = &v
		return true
	}); err != nil {
		return nil, &Error{err}
	}
	if derr != nil {
		return nil, &Error{derr}
	}
	return vins, nil
}

// IterateAccounts calls fn for each committed account, until fn returns false.
func (s *State) IterateAccounts(fn func(addr yody.Address, a *Account) bool) error {
	var derr error
	if err := s.accountTrie.Iterate(func(k, data []byte) bool {
		var a Account
		if derr = rlp.DecodeBytes(data, &a); derr != nil {
			return false
		}
		return fn(yody.BytesToAddress(k), &a)
	}); err != nil {
		return &Error{err}
	}
	if derr != nil {
		return &Error{derr}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current overlay.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	rev := s.sm.Push()
	s.marks = append(s.marks[:rev-1], len(s.changes))
	return rev
}

// RevertTo revert to checkpoint specified by revision.
// The change log is truncated as well, transfers are kept.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if revision >= 1 && revision-1 < len(s.marks) {
		s.changes = s.changes[:s.marks[revision-1]]
		s.marks = s.marks[:revision-1]
	}
}

// Changes returns the change log since last commit.
func (s *State) Changes() []Change {
	return s.changes
}

// Transfers returns the recorded transfers.
func (s *State) Transfers() []*Transfer {
	return s.transfers
}

// ValidateTransfers drops transfers not backed by the change log.
func (s *State) ValidateTransfers() {
	s.transfers = ValidateTransfers(s.transfers, s.changes)
}

// ClearTransfers drops all recorded transfers.
func (s *State) ClearTransfers() {
	s.transfers = nil
}

// Discard drops all uncommitted changes.
func (s *State) Discard() {
	s.resetOverlay()
}

// Root returns the account trie root, covering committed changes.
func (s *State) Root() (yody.Bytes32, error) {
	root, err := s.accountTrie.Hash()
	if err != nil {
		return yody.Bytes32{}, &Error{err}
	}
	return root, nil
}

// UTXORoot returns the UTXO trie root, covering committed changes.
func (s *State) UTXORoot() (yody.Bytes32, error) {
	root, err := s.utxoTrie.Hash()
	if err != nil {
		return yody.Bytes32{}, &Error{err}
	}
	return root, nil
}

type (
	storageKey struct {
		addr    yody.Address
		barrier int
		key     yody.Bytes32
	}
	vinKey            yody.Address
	codeKey           yody.Address
	killedKey         yody.Address
	storageBarrierKey yody.Address
)
