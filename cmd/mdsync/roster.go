/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"

	"github.com/yorkie-team/mdsync/pkg/session"
)

const tblClients = "clients"

var rosterSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblClients: {
			Name: tblClients,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Handle"},
				},
				"name": {
					Name:    "name",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Name"},
				},
				"client_id": {
					Name:    "client_id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
			},
		},
	},
}

// client is a participant of a replay. Stored clients are never mutated;
// changes are written as new records.
type client struct {
	Name   string
	ID     string
	Handle session.Handle
	Seq    int
	Left   bool
}

// roster is the table of the clients of a replay, indexed by session
// handle, name and client ID.
type roster struct {
	db  *memdb.MemDB
	seq int
}

func newRoster() (*roster, error) {
	db, err := memdb.NewMemDB(rosterSchema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &roster{db: db}, nil
}

// add inserts a new client. Names and client IDs must be unique.
func (r *roster) add(c *client) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	for index, value := range map[string]string{"name": c.Name, "client_id": c.ID} {
		raw, err := txn.First(tblClients, index, value)
		if err != nil {
			return fmt.Errorf("find client by %s: %w", index, err)
		}
		if raw != nil {
			return fmt.Errorf("%s %q: %w", index, value, errDuplicatedClient)
		}
	}

	record := *c
	record.Seq = r.seq
	if err := txn.Insert(tblClients, &record); err != nil {
		return fmt.Errorf("insert client %s: %w", c.Name, err)
	}
	txn.Commit()

	r.seq++
	return nil
}

// markLeft records that the client of handle left.
func (r *roster) markLeft(handle session.Handle) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblClients, "id", string(handle))
	if err != nil {
		return fmt.Errorf("find client of %s: %w", handle, err)
	}
	if raw == nil {
		return fmt.Errorf("%s: %w", handle, errUnknownClient)
	}

	record := *raw.(*client)
	record.Left = true
	if err := txn.Insert(tblClients, &record); err != nil {
		return fmt.Errorf("update client %s: %w", record.Name, err)
	}
	txn.Commit()

	return nil
}

func (r *roster) byHandle(handle session.Handle) (*client, bool) {
	return r.first("id", string(handle))
}

func (r *roster) byName(name string) (*client, bool) {
	return r.first("name", name)
}

func (r *roster) byID(id string) (*client, bool) {
	return r.first("client_id", id)
}

// all returns every client in the order they joined.
func (r *roster) all() []*client {
	txn := r.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblClients, "id")
	if err != nil {
		return nil
	}

	var clients []*client
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		clients = append(clients, raw.(*client))
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].Seq < clients[j].Seq
	})
	return clients
}

// active returns the clients that did not leave, in the order they joined.
func (r *roster) active() []*client {
	var clients []*client
	for _, c := range r.all() {
		if !c.Left {
			clients = append(clients, c)
		}
	}
	return clients
}

func (r *roster) first(index, value string) (*client, bool) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblClients, index, value)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*client), true
}
