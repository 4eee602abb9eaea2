package engine

import (
	"math/bits"
	"sync/atomic"

	. "github.com/kestrelchess/kestrel/pkg/common"
)

const (
	boundLower = 1 << iota
	boundUpper
)

const boundExact = boundLower | boundUpper

const clusterSize = 5

// ttCluster packs five records into one 64-byte cache line: the
// 8-byte-aligned payloads lead so Go inserts no interior padding, and
// the uint16 tail rounds the struct up to exactly 64 bytes. Each record
// is a 32-bit verification key plus a 64-bit payload. Keys and payloads
// are read and written with relaxed atomics; a torn pair fails key
// verification and reads as a miss (Hyatt/Mann xor scheme).
type ttCluster struct {
	data [clusterSize]uint64
	keys [clusterSize]uint32
	pad  uint16
}

// payload layout, low to high:
// score:16 staticEval:16 move:16 depth:8 gen:6|bound:2
func packEntry(score, staticEval int, move PackedMove, depth int, gen uint8, bound int) uint64 {
	return uint64(uint16(int16(score))) |
		uint64(uint16(int16(staticEval)))<<16 |
		uint64(move)<<32 |
		uint64(uint8(int8(depth)))<<48 |
		uint64(gen<<2|uint8(bound))<<56
}

func unpackEntry(d uint64) (score, staticEval int, move PackedMove, depth int, gen uint8, bound int) {
	score = int(int16(uint16(d)))
	staticEval = int(int16(uint16(d >> 16)))
	move = PackedMove(uint16(d >> 32))
	depth = int(int8(uint8(d >> 48)))
	gen = uint8(d>>56) >> 2
	bound = int(uint8(d>>56) & 3)
	return
}

func entryHash(d uint64) uint32 {
	return uint32(d) ^ uint32(d>>32)
}

type transTable struct {
	megabytes int
	clusters  []ttCluster
	gen       uint8
}

func newTransTable(megabytes int) *transTable {
	var tt = &transTable{}
	tt.Resize(megabytes)
	return tt
}

func (tt *transTable) Resize(megabytes int) {
	var numClusters = megabytes * (1 << 20) / 64
	if numClusters < 1 {
		numClusters = 1
	}
	tt.megabytes = megabytes
	tt.clusters = make([]ttCluster, numClusters)
}

func (tt *transTable) Size() int {
	return tt.megabytes
}

func (tt *transTable) IncGeneration() {
	tt.gen = (tt.gen + 1) & 63
}

func (tt *transTable) Clear() {
	tt.gen = 0
	for i := range tt.clusters {
		tt.clusters[i] = ttCluster{}
	}
}

func (tt *transTable) clusterIndex(key uint64) int {
	var hi, _ = bits.Mul64(key, uint64(len(tt.clusters)))
	return int(hi)
}

// Prefetch is a placement hint. The Go runtime offers no portable
// prefetch intrinsic, so touching the cluster is the best we can do.
func (tt *transTable) Prefetch(key uint64) {
	_ = &tt.clusters[tt.clusterIndex(key)]
}

func (tt *transTable) Read(key uint64) (depth, score, staticEval, bound int, move PackedMove, found bool) {
	var cluster = &tt.clusters[tt.clusterIndex(key)]
	for i := 0; i < clusterSize; i++ {
		var d = atomic.LoadUint64(&cluster.data[i])
		var k = atomic.LoadUint32(&cluster.keys[i])
		if d == 0 || k^entryHash(d) != uint32(key) {
			continue
		}
		var gen uint8
		score, staticEval, move, depth, gen, bound = unpackEntry(d)
		if bound == 0 {
			continue
		}
		if gen != tt.gen {
			// refresh generation so the entry survives replacement
			var nd = packEntry(score, staticEval, move, depth, tt.gen, bound)
			atomic.StoreUint64(&cluster.data[i], nd)
			atomic.StoreUint32(&cluster.keys[i], uint32(key)^entryHash(nd))
		}
		found = true
		return
	}
	return 0, 0, 0, 0, PackedMoveEmpty, false
}

func (tt *transTable) age(gen uint8) int {
	return int((64 + tt.gen - gen) & 63)
}

func (tt *transTable) Update(key uint64, depth, score, staticEval, bound int, move PackedMove) {
	var cluster = &tt.clusters[tt.clusterIndex(key)]

	var replaceIndex = -1
	var replaceScore = int(^uint(0) >> 1)

	for i := 0; i < clusterSize; i++ {
		var d = atomic.LoadUint64(&cluster.data[i])
		var k = atomic.LoadUint32(&cluster.keys[i])

		if d == 0 {
			if replaceIndex == -1 || replaceScore > -(1 << 20) {
				replaceIndex = i
				replaceScore = -(1 << 20)
			}
			continue
		}

		var _, _, oldMove, oldDepth, oldGen, oldBound = unpackEntry(d)

		if k^entryHash(d) == uint32(key) {
			// same position: do not regress an exact entry of this
			// search with a shallower non-exact result
			if oldGen == tt.gen && oldBound == boundExact &&
				depth < oldDepth && bound != boundExact {
				return
			}
			if move == PackedMoveEmpty {
				move = oldMove
			}
			replaceIndex = i
			break
		}

		var relevance = oldDepth - 8*tt.age(oldGen)
		if relevance < replaceScore {
			replaceIndex = i
			replaceScore = relevance
		}
		_ = oldBound
	}

	var nd = packEntry(score, staticEval, move, depth, tt.gen, bound)
	atomic.StoreUint64(&cluster.data[replaceIndex], nd)
	atomic.StoreUint32(&cluster.keys[replaceIndex], uint32(key)^entryHash(nd))
}

// HashFull estimates the per-mille occupancy of the current generation,
// sampling the front of the table the way UCI hashfull is reported.
func (tt *transTable) HashFull() int {
	var sample = 200
	if sample > len(tt.clusters) {
		sample = len(tt.clusters)
	}
	if sample == 0 {
		return 0
	}
	var used = 0
	for i := 0; i < sample; i++ {
		var cluster = &tt.clusters[i]
		for j := 0; j < clusterSize; j++ {
			var d = atomic.LoadUint64(&cluster.data[j])
			if d == 0 {
				continue
			}
			var _, _, _, _, gen, bound = unpackEntry(d)
			if bound != 0 && gen == tt.gen {
				used++
			}
		}
	}
	return used * 1000 / (sample * clusterSize)
}
