// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the account trie and the UTXO trie as one ledger.
// It follows the flow as bellow:
//
//	         o
//	         |
//	[ revertable overlay ] -> [ change log ] [ transfers ]
//	         |
//	  [ stacked map ] -> [ journal ] -> Commit -> [ account trie ] [ utxo trie ] [ storage tries ]
//	         |                                              |
//	   [ trie readers ]                           Flush -> [ one db batch ]
//
// Every address owns at most one Vin, the spendable output carrying the
// account balance on the UTXO side.
package state
