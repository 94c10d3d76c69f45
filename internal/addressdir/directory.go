// Package addressdir resolves human-friendly inputs (1-based index, alias, or
// literal address) to validated Tron addresses, backed by a whitelist loaded
// from configuration. The whitelist format is a pipe-separated list of
// "address=alias,description" entries; the description is optional.
//
//	TAbc...=ops wallet,main operations|TXyz...=cold storage
//
// The directory is read-only after construction and safe for concurrent use.
package addressdir

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gabapcia/tronwatch/internal/chain"
	"github.com/gabapcia/tronwatch/internal/pkg/logger"
	"github.com/gabapcia/tronwatch/internal/pkg/types"
)

// ErrNotFound is returned when no whitelist entry matches the given input.
var ErrNotFound = errors.New("address not found in whitelist")

// Entry is one whitelisted address with its display metadata.
type Entry struct {
	Address     string
	Alias       string
	Description string
}

// Directory is the address lookup service consumed by the transfer surface.
type Directory interface {
	// ListWatched returns the whitelisted addresses in declaration order.
	ListWatched() []string

	// Entries returns the full whitelist in declaration order.
	Entries() []Entry

	// Resolve maps a human input to a whitelisted address. Inputs are tried
	// as a 1-based index, then as an alias, then as a literal address.
	// Returns ErrNotFound when nothing matches.
	Resolve(input string) (string, error)

	// IsAllowed reports whether the address is part of the whitelist.
	IsAllowed(address string) bool
}

type directory struct {
	entries []Entry
	byAddr  types.Set[string]
	byAlias map[string]string
}

var _ Directory = (*directory)(nil)

// Parse builds a Directory from the serialized whitelist format. Entries with
// a malformed address are skipped with a warning; an empty or fully invalid
// input yields an empty directory, not an error.
func Parse(ctx context.Context, raw string) *directory {
	dir := &directory{
		byAddr:  types.NewSet[string](),
		byAlias: make(map[string]string),
	}

	for _, item := range strings.Split(raw, "|") {
		address, info, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			continue
		}

		address = strings.TrimSpace(address)
		if !chain.ValidAddress(address) {
			logger.Warn(ctx, "skipping invalid whitelist address", "address", address)
			continue
		}

		alias, description, _ := strings.Cut(info, ",")
		entry := Entry{
			Address:     address,
			Alias:       strings.TrimSpace(alias),
			Description: strings.TrimSpace(description),
		}

		dir.entries = append(dir.entries, entry)
		dir.byAddr.Add(address)
		if entry.Alias != "" {
			dir.byAlias[entry.Alias] = address
		}
	}

	logger.Info(ctx, "address whitelist loaded", "entries", len(dir.entries))
	return dir
}

// ListWatched implements Directory.
func (d *directory) ListWatched() []string {
	addresses := make([]string, len(d.entries))
	for i, entry := range d.entries {
		addresses[i] = entry.Address
	}
	return addresses
}

// Entries implements Directory.
func (d *directory) Entries() []Entry {
	entries := make([]Entry, len(d.entries))
	copy(entries, d.entries)
	return entries
}

// Resolve implements Directory.
func (d *directory) Resolve(input string) (string, error) {
	input = strings.TrimSpace(input)

	if index, err := strconv.Atoi(input); err == nil {
		if index < 1 || index > len(d.entries) {
			return "", ErrNotFound
		}
		return d.entries[index-1].Address, nil
	}

	if address, ok := d.byAlias[input]; ok {
		return address, nil
	}

	if chain.ValidAddress(input) && d.byAddr.Has(input) {
		return input, nil
	}

	return "", ErrNotFound
}

// IsAllowed implements Directory.
func (d *directory) IsAllowed(address string) bool {
	return d.byAddr.Has(address)
}
