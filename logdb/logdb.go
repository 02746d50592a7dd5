// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb indexes contract events of processed blocks in sqlite,
// for queries by block range, contract address and topics.
package logdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/log"
	"github.com/yodynetwork/yody/receiptdb"
	"github.com/yodynetwork/yody/yody"
)

var logger = log.WithContext("pkg", "logdb")

var memCounter atomic.Uint64

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("opened log db", "path", path, "sqlite", driverVer)
	return &LogDB{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem create a log db in ram.
// Each instance is a distinct database shared by its connections.
func NewMem() (*LogDB, error) {
	return New(fmt.Sprintf("file:logdb-mem-%d?mode=memory&cache=shared", memCounter.Add(1)))
}

// Close close the log db.
func (db *LogDB) Close() error {
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// NewestBlockNumber returns the number of the newest block having events.
// ok is false if no event was ever written.
func (db *LogDB) NewestBlockNumber() (num uint32, ok bool, err error) {
	var seq sequence
	if err := db.db.QueryRow("SELECT seq FROM event ORDER BY seq DESC LIMIT 1").Scan(&seq); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return seq.BlockNumber(), true, nil
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	const query = "SELECT seq, blockHash, txID, outputIndex, sender, address, topic0, topic1, topic2, topic3, data FROM event"
	if filter == nil {
		return db.queryEvents(ctx, query+" ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := query + " WHERE 1"
	if filter.Range != nil {
		args = append(args, newSequence(filter.Range.From, 0))
		stmt += " AND seq >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, newSequence(filter.Range.To, 0)|sequence(1<<31-1))
			stmt += " AND seq <= ?"
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Address != nil {
			args = append(args, criteria.Address.Bytes())
			stmt += " AND address = ?"
		}
		for j, topic := range criteria.Topics {
			if topic != nil {
				args = append(args, topic.Bytes())
				stmt += fmt.Sprintf(" AND topic%d = ?", j)
			}
		}
		stmt += ")"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq         sequence
			blockHash   []byte
			txID        []byte
			outputIndex uint32
			sender      []byte
			address     []byte
			topics      [MaxTopics][]byte
			data        []byte
		)
		if err := rows.Scan(
			&seq,
			&blockHash,
			&txID,
			&outputIndex,
			&sender,
			&address,
			&topics[0],
			&topics[1],
			&topics[2],
			&topics[3],
			&data,
		); err != nil {
			return nil, err
		}
		event := &Event{
			BlockHash:   yody.BytesToBytes32(blockHash),
			BlockNumber: seq.BlockNumber(),
			Index:       seq.Index(),
			TxID:        yody.BytesToBytes32(txID),
			OutputIndex: outputIndex,
			Sender:      yody.BytesToAddress(sender),
			Address:     yody.BytesToAddress(address),
			Data:        data,
		}
		for i, topic := range topics {
			if len(topic) > 0 {
				h := yody.BytesToBytes32(topic)
				event.Topics[i] = &h
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// NewWriter creates a writer buffering changes in one sql transaction.
func (db *LogDB) NewWriter() *Writer {
	return &Writer{db: db.db}
}

// Writer writes events of blocks transactionally.
type Writer struct {
	db        *sql.DB
	tx        *sql.Tx
	lastBlock uint32
	index     uint32
	count     int
}

func (w *Writer) exec(query string, args ...any) error {
	if w.tx == nil {
		tx, err := w.db.Begin()
		if err != nil {
			return err
		}
		w.tx = tx
	}
	_, err := w.tx.Exec(query, args...)
	return err
}

// Write writes the events carried by receipts. Receipts must be
// in chain order, events of a block are indexed in receipt order.
func (w *Writer) Write(receipts []*receiptdb.Receipt) error {
	for _, r := range receipts {
		if r.BlockNumber != w.lastBlock {
			w.lastBlock = r.BlockNumber
			w.index = 0
		}
		for _, l := range r.Logs {
			if len(l.Topics) > MaxTopics {
				return errors.Errorf("too many topics %d", len(l.Topics))
			}
			var topics [MaxTopics][]byte
			for i, topic := range l.Topics {
				topics[i] = topic.Bytes()
			}
			if err := w.exec("INSERT OR REPLACE INTO event(seq, blockHash, txID, outputIndex, sender, address, topic0, topic1, topic2, topic3, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
				newSequence(r.BlockNumber, w.index),
				r.BlockHash.Bytes(),
				r.TxHash.Bytes(),
				r.OutputIndex,
				r.Sender.Bytes(),
				l.Address.Bytes(),
				topics[0],
				topics[1],
				topics[2],
				topics[3],
				l.Data,
			); err != nil {
				return err
			}
			w.index++
			w.count++
		}
	}
	return nil
}

// DeleteTxs removes events emitted by the given txs.
func (w *Writer) DeleteTxs(txIDs []yody.Bytes32) error {
	for _, id := range txIDs {
		if err := w.exec("DELETE FROM event WHERE txID = ?", id.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// Truncate deletes events of blocks from blockNum (included).
func (w *Writer) Truncate(blockNum uint32) error {
	return w.exec("DELETE FROM event WHERE seq >= ?", newSequence(blockNum, 0))
}

// Commit commits accumulated changes.
func (w *Writer) Commit() error {
	if w.tx == nil {
		return nil
	}
	err := w.tx.Commit()
	w.tx = nil
	w.count = 0
	return err
}

// Rollback discards uncommitted changes.
func (w *Writer) Rollback() error {
	if w.tx == nil {
		return nil
	}
	err := w.tx.Rollback()
	w.tx = nil
	w.count = 0
	return err
}

// UncommittedCount returns the count of uncommitted events.
func (w *Writer) UncommittedCount() int {
	return w.count
}
