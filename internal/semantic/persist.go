package semantic

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

const (
	indexFile = "index.bin.zst"

	indexMagic   = "CBVX"
	indexVersion = uint32(2)
)

var (
	// ErrIndexMissing is returned when no index has been written to the directory yet.
	ErrIndexMissing = errors.New("index file missing")
	// ErrIndexCorrupt is returned when the index file cannot be decoded or is internally inconsistent.
	ErrIndexCorrupt = errors.New("index file corrupt")
)

// saveSnapshot writes vectors and document metadata to a single file in dir, replaced
// with one rename so readers never see vectors and documents from different builds.
func saveSnapshot(dir string, snap *snapshot) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	meta, err := json.Marshal(snap.docs)
	if err != nil {
		return fmt.Errorf("failed to encode documents: %w", err)
	}

	err = saveToFile(filepath.Join(dir, indexFile), func(w io.Writer) error {
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		if err := writeVectors(enc, snap.vectors, snap.dim); err != nil {
			_ = enc.Close()
			return err
		}
		if err := writeSection(enc, meta); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// loadSnapshot reads a snapshot written by saveSnapshot.
func loadSnapshot(dir string, dim int) (*snapshot, error) {
	f, err := os.Open(filepath.Join(dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrIndexMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	dec, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	defer dec.Close()

	vectors, fileDim, err := readVectors(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	if fileDim != dim {
		return nil, fmt.Errorf("%w: dimension %d, expected %d", ErrIndexCorrupt, fileDim, dim)
	}

	meta, err := readSection(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: documents: %v", ErrIndexCorrupt, err)
	}
	var docs []document.Document
	if err := json.Unmarshal(meta, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("%w: %d documents for %d vectors", ErrIndexCorrupt, len(docs), len(vectors))
	}

	return &snapshot{docs: docs, vectors: vectors, dim: dim}, nil
}

// writeSection writes a length-prefixed block.
func writeSection(w io.Writer, data []byte) error {
	size := make([]byte, 8)
	binary.LittleEndian.PutUint64(size, uint64(len(data)))
	if _, err := w.Write(size); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// maxSectionSize bounds a length-prefixed block read back from disk.
const maxSectionSize = 1 << 30

func readSection(r io.Reader) ([]byte, error) {
	size := make([]byte, 8)
	if _, err := io.ReadFull(r, size); err != nil {
		return nil, fmt.Errorf("read size: %w", err)
	}
	n := binary.LittleEndian.Uint64(size)
	if n > maxSectionSize {
		return nil, fmt.Errorf("section of %d bytes exceeds limit", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read section: %w", err)
	}
	return data, nil
}

func writeVectors(w io.Writer, vectors [][]float32, dim int) error {
	header := make([]byte, 16)
	copy(header[0:4], indexMagic)
	binary.LittleEndian.PutUint32(header[4:8], indexVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(vectors)))
	binary.LittleEndian.PutUint32(header[12:16], uint32(dim))
	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, dim*4)
	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("vector %d has size %d, expected %d", i, len(vec), dim)
		}
		for j, v := range vec {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func readVectors(r io.Reader) ([][]float32, int, error) {
	header := make([]byte, 16)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	if string(header[0:4]) != indexMagic {
		return nil, 0, fmt.Errorf("bad magic %q", header[0:4])
	}
	if v := binary.LittleEndian.Uint32(header[4:8]); v != indexVersion {
		return nil, 0, fmt.Errorf("unsupported version %d", v)
	}
	count := int(binary.LittleEndian.Uint32(header[8:12]))
	dim := int(binary.LittleEndian.Uint32(header[12:16]))

	vectors := make([][]float32, count)
	buf := make([]byte, dim*4)
	for i := range vectors {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, 0, fmt.Errorf("read vector %d: %w", i, err)
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		vectors[i] = vec
	}
	return vectors, dim, nil
}

// saveToFile writes through a temp file in the same directory and renames it over filename.
func saveToFile(filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	_ = tmp.Chmod(0644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	tmpName = ""
	return nil
}
