// store.go --  This file is part of goGDF project.
// goGDF authors, 2026
//
//	goGDF is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------

// Package cderifile persists density-fitting tensors in a BadgerDB
// key-value store. Each tensor component is written one column block
// at a time under "component/{kpair:08x}/{col0:08x}", so a prefix scan
// walks the blocks of a k-point pair in ascending column order. Values
// hold a little-endian float64 dump of the block, optionally
// zstd-compressed behind a one-byte header.
package cderifile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

// Tensor components, the first key segment.
const (
	Real    = "realpart"
	Imag    = "imagpart"
	NegReal = "negrealpart"
	NegImag = "negimagpart"
)

const metaPrefix = "meta/"

const (
	encRaw  = byte(0)
	encZstd = byte(1)
)

var (
	ErrClosed   = errors.New("cderifile: store is closed")
	ErrNotFound = errors.New("cderifile: not found")
)

// Options configures a Store.
type Options struct {
	// Dir is the database directory, created if missing. Ignored when
	// InMemory is set.
	Dir string

	// InMemory keeps everything in RAM, for tests and small runs.
	InMemory bool

	// Compress runs block values through zstd.
	Compress bool

	// SyncWrites forces an fsync per write batch.
	SyncWrites bool
}

// Store is a tensor container backed by BadgerDB. Safe for concurrent
// use.
type Store struct {
	db       *badger.DB
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	compress bool

	mu     sync.Mutex
	closed bool
}

// Open creates or opens a store.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithLogger(nil).WithInMemory(true)
	}
	if opts.SyncWrites {
		bopts = bopts.WithSyncWrites(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("cderifile: opening store: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}
	return &Store{db: db, enc: enc, dec: dec, compress: opts.Compress}, nil
}

// Close flushes and releases the database. Further calls on the store
// return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func blockKey(component string, kk, col0 int) []byte {
	return []byte(fmt.Sprintf("%s/%08x/%08x", component, kk, col0))
}

func (s *Store) encode(m *mat.Dense) []byte {
	r, c := m.Dims()
	payload := make([]byte, 8+8*r*c)
	binary.LittleEndian.PutUint32(payload[0:], uint32(r))
	binary.LittleEndian.PutUint32(payload[4:], uint32(c))
	off := 8
	for i := 0; i < r; i++ {
		for _, v := range m.RawRowView(i) {
			binary.LittleEndian.PutUint64(payload[off:], math.Float64bits(v))
			off += 8
		}
	}
	if !s.compress {
		return append([]byte{encRaw}, payload...)
	}
	return append([]byte{encZstd}, s.enc.EncodeAll(payload, nil)...)
}

func (s *Store) decode(val []byte) (*mat.Dense, error) {
	if len(val) < 1 {
		return nil, fmt.Errorf("cderifile: empty value")
	}
	payload := val[1:]
	if val[0] == encZstd {
		var err error
		payload, err = s.dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("cderifile: decompressing block: %w", err)
		}
	}
	if len(payload) < 8 {
		return nil, fmt.Errorf("cderifile: truncated block header")
	}
	r := int(binary.LittleEndian.Uint32(payload[0:]))
	c := int(binary.LittleEndian.Uint32(payload[4:]))
	if len(payload) != 8+8*r*c {
		return nil, fmt.Errorf("cderifile: block payload is %d bytes, want %d", len(payload), 8+8*r*c)
	}
	data := make([]float64, r*c)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[8+8*i:]))
	}
	return mat.NewDense(r, c, data), nil
}

func (s *Store) put(component string, kk, col0 int, m *mat.Dense) error {
	if s.isClosed() {
		return ErrClosed
	}
	val := s.encode(m)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(component, kk, col0), val)
	})
}

func (s *Store) PutReal(kk, col0 int, m *mat.Dense) error { return s.put(Real, kk, col0, m) }
func (s *Store) PutImag(kk, col0 int, m *mat.Dense) error { return s.put(Imag, kk, col0, m) }
func (s *Store) PutNegReal(kk, col0 int, m *mat.Dense) error {
	return s.put(NegReal, kk, col0, m)
}
func (s *Store) PutNegImag(kk, col0 int, m *mat.Dense) error {
	return s.put(NegImag, kk, col0, m)
}

// SetMeta stores a small string attribute, such as dimensions.
func (s *Store) SetMeta(key, value string) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metaPrefix+key), []byte(value))
	})
}

// Meta reads back a string attribute, ErrNotFound when absent.
func (s *Store) Meta(key string) (string, error) {
	if s.isClosed() {
		return "", ErrClosed
	}
	var out string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaPrefix + key))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		out = string(val)
		return nil
	})
	return out, err
}

// Block is one stored column window of a tensor component.
type Block struct {
	Col0 int
	Data *mat.Dense
}

// Blocks returns the stored column blocks of one component for a
// k-point pair, in ascending column order. An absent component yields
// an empty slice.
func (s *Store) Blocks(component string, kk int) ([]Block, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	prefix := []byte(fmt.Sprintf("%s/%08x/", component, kk))
	var out []Block
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()
			col0, err := strconv.ParseUint(string(key[len(prefix):]), 16, 32)
			if err != nil {
				return fmt.Errorf("cderifile: malformed key %q: %w", key, err)
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			m, err := s.decode(val)
			if err != nil {
				return err
			}
			out = append(out, Block{Col0: int(col0), Data: m})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// assemble joins the column blocks of one component into a full
// matrix.
func (s *Store) assemble(component string, kk int) (*mat.Dense, error) {
	blocks, err := s.Blocks(component, kk)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, ErrNotFound
	}
	rows, _ := blocks[0].Data.Dims()
	last := blocks[len(blocks)-1]
	_, lc := last.Data.Dims()
	out := mat.NewDense(rows, last.Col0+lc, nil)
	for _, b := range blocks {
		_, c := b.Data.Dims()
		for i := 0; i < rows; i++ {
			copy(out.RawRowView(i)[b.Col0:b.Col0+c], b.Data.RawRowView(i))
		}
	}
	return out, nil
}

// The four component accessors reassemble a full (naux, ncols) matrix
// for one k-point pair.
func (s *Store) RealPart(kk int) (*mat.Dense, error)    { return s.assemble(Real, kk) }
func (s *Store) ImagPart(kk int) (*mat.Dense, error)    { return s.assemble(Imag, kk) }
func (s *Store) NegRealPart(kk int) (*mat.Dense, error) { return s.assemble(NegReal, kk) }
func (s *Store) NegImagPart(kk int) (*mat.Dense, error) { return s.assemble(NegImag, kk) }
