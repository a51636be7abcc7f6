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

// Package cmap provides a concurrent map keyed by strings.
package cmap

import (
	"hash/fnv"
	"sync"
)

// numShards is the number of shards.
const numShards = 16

type shard[K ~string, V any] struct {
	sync.RWMutex
	items map[K]V
}

// Map is a concurrent map that is safe for multiple routines. Keys are
// spread over shards so that unrelated keys do not contend for one lock.
type Map[K ~string, V any] struct {
	shards [numShards]shard[K, V]
}

// New creates a new Map.
func New[K ~string, V any]() *Map[K, V] {
	m := &Map[K, V]{}
	for i := 0; i < numShards; i++ {
		m.shards[i].items = make(map[K]V)
	}
	return m
}

// shardForKey returns the shard for the given key.
func (m *Map[K, V]) shardForKey(key K) *shard[K, V] {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(key))
	return &m.shards[hash.Sum32()%numShards]
}

// SetIfAbsent sets the value for key unless the key is already present. It
// returns whether the value was set.
func (m *Map[K, V]) SetIfAbsent(key K, value V) bool {
	shard := m.shardForKey(key)

	shard.Lock()
	defer shard.Unlock()

	if _, exists := shard.items[key]; exists {
		return false
	}
	shard.items[key] = value
	return true
}

// Get retrieves a value from the map.
func (m *Map[K, V]) Get(key K) (V, bool) {
	shard := m.shardForKey(key)

	shard.RLock()
	defer shard.RUnlock()

	value, exists := shard.items[key]
	return value, exists
}

// Pop removes the value of key from the map and returns it.
func (m *Map[K, V]) Pop(key K) (V, bool) {
	shard := m.shardForKey(key)

	shard.Lock()
	defer shard.Unlock()

	value, exists := shard.items[key]
	if exists {
		delete(shard.items, key)
	}
	return value, exists
}

// Len returns the number of items in the map
func (m *Map[K, V]) Len() int {
	count := 0

	for i := 0; i < numShards; i++ {
		shard := &m.shards[i]

		shard.RLock()
		count += len(shard.items)
		shard.RUnlock()
	}

	return count
}

// Keys returns a slice of all keys in the map
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0)

	for i := 0; i < numShards; i++ {
		shard := &m.shards[i]

		shard.RLock()
		for k := range shard.items {
			keys = append(keys, k)
		}
		shard.RUnlock()
	}
	return keys
}

// Drain removes every item from the map and returns the removed values.
func (m *Map[K, V]) Drain() []V {
	values := make([]V, 0)

	for i := 0; i < numShards; i++ {
		shard := &m.shards[i]

		shard.Lock()
		for k, v := range shard.items {
			values = append(values, v)
			delete(shard.items, k)
		}
		shard.Unlock()
	}

	return values
}
