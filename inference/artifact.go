package inference

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/RyanBlaney/sonido-kord/theory"
	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrModelLoad            = errors.New("model load failed")
	ErrModelCatalogMismatch = errors.New("model was trained for a different catalog")
	ErrModelUnavailable     = errors.New("model unavailable")
)

// Artifact header, little-endian:
//
//	[0:4]   magic "SKMA"
//	[4:6]   format version
//	[6:8]   reserved
//	[8:12]  payload length
//	[12:20] xxhash64 of payload
//
// followed by the msgpack payload.
const (
	magic         = "SKMA"
	FormatVersion = 1
	headerSize    = 20

	maxPayloadSize = 256 << 20
)

// FeatureSet names the model input layout
type FeatureSet string

const (
	FeaturesPCP      FeatureSet = "pcp"       // 12 profile bins
	FeaturesPCPBands FeatureSet = "pcp+bands" // profile bins followed by band energies
)

// Activation is applied after a dense layer
type Activation string

const (
	ActivationReLU   Activation = "relu"
	ActivationTanh   Activation = "tanh"
	ActivationLinear Activation = "linear"
)

// Layer is a dense layer. Weights are row-major with one row per output.
type Layer struct {
	Inputs     int        `json:"inputs" msgpack:"inputs"`
	Outputs    int        `json:"outputs" msgpack:"outputs"`
	Weights    []float64  `json:"weights" msgpack:"weights"`
	Bias       []float64  `json:"bias" msgpack:"bias"`
	Activation Activation `json:"activation" msgpack:"activation"`
}

// Artifact is a trained chord classifier together with the catalog it was trained on.
// Outputs are indexed like that catalog.
type Artifact struct {
	Version         int        `json:"version" msgpack:"version"`
	Features        FeatureSet `json:"features" msgpack:"features"`
	Bands           int        `json:"bands,omitempty" msgpack:"bands,omitempty"`
	CatalogSize     int        `json:"catalog_size" msgpack:"catalog_size"`
	CatalogChecksum uint64     `json:"catalog_checksum" msgpack:"catalog_checksum"`
	Layers          []Layer    `json:"layers" msgpack:"layers"`
}

// InputSize is the length of the feature vector the artifact expects
func (a *Artifact) InputSize() int {
	if a.Features == FeaturesPCPBands {
		return theory.PitchClassCount + a.Bands
	}
	return theory.PitchClassCount
}

// Validate checks the artifact for internal consistency
func (a *Artifact) Validate() error {
	if a.Version != FormatVersion {
		return fmt.Errorf("unsupported payload version %d", a.Version)
	}

	switch a.Features {
	case FeaturesPCP:
		if a.Bands != 0 {
			return fmt.Errorf("feature set %q takes no bands, got %d", a.Features, a.Bands)
		}
	case FeaturesPCPBands:
		if a.Bands <= 0 {
			return fmt.Errorf("feature set %q needs bands, got %d", a.Features, a.Bands)
		}
	default:
		return fmt.Errorf("unknown feature set %q", a.Features)
	}

	if a.CatalogSize <= 0 {
		return fmt.Errorf("catalog size %d must be positive", a.CatalogSize)
	}
	if len(a.Layers) == 0 {
		return errors.New("no layers")
	}

	inputs := a.InputSize()
	for i, l := range a.Layers {
		if l.Inputs != inputs {
			return fmt.Errorf("layer %d takes %d inputs, previous layer gives %d", i, l.Inputs, inputs)
		}
		if l.Outputs <= 0 {
			return fmt.Errorf("layer %d has %d outputs", i, l.Outputs)
		}
		if len(l.Weights) != l.Inputs*l.Outputs {
			return fmt.Errorf("layer %d has %d weights, want %d", i, len(l.Weights), l.Inputs*l.Outputs)
		}
		if len(l.Bias) != l.Outputs {
			return fmt.Errorf("layer %d has %d biases, want %d", i, len(l.Bias), l.Outputs)
		}
		switch l.Activation {
		case ActivationReLU, ActivationTanh, ActivationLinear:
		default:
			return fmt.Errorf("layer %d has unknown activation %q", i, l.Activation)
		}
		inputs = l.Outputs
	}

	if inputs != a.CatalogSize {
		return fmt.Errorf("final layer gives %d outputs for a catalog of %d", inputs, a.CatalogSize)
	}
	return nil
}

// CheckCatalog verifies the artifact was trained against this catalog
func (a *Artifact) CheckCatalog(catalog *theory.Catalog) error {
	if catalog.Len() != a.CatalogSize {
		return fmt.Errorf("%w: artifact has %d templates, catalog has %d",
			ErrModelCatalogMismatch, a.CatalogSize, catalog.Len())
	}
	if catalog.Checksum() != a.CatalogChecksum {
		return fmt.Errorf("%w: checksum %016x, catalog has %016x",
			ErrModelCatalogMismatch, a.CatalogChecksum, catalog.Checksum())
	}
	return nil
}

// Write encodes an artifact
func Write(w io.Writer, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid artifact: %w", err)
	}

	payload, err := msgpack.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	header := make([]byte, headerSize)
	copy(header[0:4], magic)
	binary.LittleEndian.PutUint16(header[4:6], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	binary.LittleEndian.PutUint64(header[12:20], xxhash.Sum64(payload))

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// WriteFile encodes an artifact to a file
func WriteFile(path string, a *Artifact) error {
	var buf bytes.Buffer
	if err := Write(&buf, a); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Read decodes and validates an artifact without checking it against a catalog
func Read(r io.Reader) (*Artifact, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrModelLoad, err)
	}

	if string(header[0:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrModelLoad, header[0:4])
	}
	if v := binary.LittleEndian.Uint16(header[4:6]); v != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrModelLoad, v)
	}

	size := binary.LittleEndian.Uint32(header[8:12])
	if size == 0 || size > maxPayloadSize {
		return nil, fmt.Errorf("%w: payload length %d", ErrModelLoad, size)
	}
	sum := binary.LittleEndian.Uint64(header[12:20])

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: reading payload: %v", ErrModelLoad, err)
	}
	if got := xxhash.Sum64(payload); got != sum {
		return nil, fmt.Errorf("%w: checksum %016x, header says %016x", ErrModelLoad, got, sum)
	}

	var a Artifact
	if err := msgpack.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %v", ErrModelLoad, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	return &a, nil
}

// Load reads an artifact, checks it against the live catalog and builds the model
func Load(r io.Reader, catalog *theory.Catalog) (*Model, error) {
	a, err := Read(r)
	if err != nil {
		return nil, err
	}
	if err := a.CheckCatalog(catalog); err != nil {
		return nil, err
	}
	return NewModel(a)
}

// LoadFile is Load for a file path
func LoadFile(path string, catalog *theory.Catalog) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	defer f.Close()

	return Load(bufio.NewReader(f), catalog)
}
