package eval

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Weight file layout, little endian:
//
//	magic   uint32  'KNET'
//	version uint32
//	layers  uint32          number of layer-size entries
//	sizes   [layers]uint32   768, 512, 1
//	hidden weights, hidden biases, output weights, output bias (float32)
const (
	weightsMagic   = 0x54454e4b // "KNET"
	weightsVersion = 1
)

// LoadWeights reads and verifies a network file. The header must carry
// the expected magic and version, and the first layer's output size
// must match the compiled-in accumulator size, otherwise the load
// fails and the caller refuses to evaluate with this network.
func LoadWeights(f io.Reader) (*Weights, error) {
	var header struct {
		Magic     uint32
		Version   uint32
		NumLayers uint32
	}
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read network header: %w", err)
	}
	if header.Magic != weightsMagic {
		return nil, fmt.Errorf("bad network magic %#x", header.Magic)
	}
	if header.Version != weightsVersion {
		return nil, fmt.Errorf("unsupported network version %d", header.Version)
	}
	if header.NumLayers < 2 || header.NumLayers > 16 {
		return nil, fmt.Errorf("bad network layer count %d", header.NumLayers)
	}

	var sizes = make([]uint32, header.NumLayers)
	if err := binary.Read(f, binary.LittleEndian, sizes); err != nil {
		return nil, fmt.Errorf("read network topology: %w", err)
	}
	if sizes[0] != InputSize || sizes[1] != HiddenSize {
		return nil, fmt.Errorf("network topology %v does not match accumulator %dx%d",
			sizes, InputSize, HiddenSize)
	}

	var w = &Weights{}
	for _, block := range [][]float32{
		w.HiddenWeights[:],
		w.HiddenBiases[:],
		w.OutputWeights[:],
	} {
		if err := readFloats(f, block); err != nil {
			return nil, err
		}
	}
	var bias [1]float32
	if err := readFloats(f, bias[:]); err != nil {
		return nil, err
	}
	w.OutputBias = bias[0]

	return w, nil
}

func readFloats(f io.Reader, dst []float32) error {
	var buf [4]byte
	for i := range dst {
		if _, err := io.ReadFull(f, buf[:]); err != nil {
			return fmt.Errorf("read network weights: %w", err)
		}
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))
	}
	return nil
}

func LoadWeightsFile(path string) (*Weights, error) {
	var f, err = os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadWeights(bufio.NewReaderSize(f, 1<<20))
}
