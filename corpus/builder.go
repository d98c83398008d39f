package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/flarexio/ragdesk/chunker"
	"github.com/flarexio/ragdesk/document"
)

type Builder struct {
	chunker chunker.Chunker
	log     *zap.Logger
}

func NewBuilder(c chunker.Chunker) *Builder {
	log := zap.L().With(
		zap.String("service", "corpus"),
		zap.String("chunker", c.Name()),
	)

	return &Builder{
		chunker: c,
		log:     log,
	}
}

// Chunker returns the strategy the builder splits documents with.
func (b *Builder) Chunker() chunker.Chunker {
	return b.chunker
}

// Build loads and chunks every supported file of dir in file name order.
// Files without text are skipped; a read error aborts the build.
func (b *Builder) Build(ctx context.Context, dir string) ([]Record, error) {
	log := b.log.With(
		zap.String("action", "build"),
		zap.String("dir", dir),
	)

	files, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log := log.With(
			zap.String("file", name),
		)

		text, err := document.Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		if text == "" {
			log.Warn("skipped empty file")
			continue
		}

		chunks := b.chunker.Chunk(text)
		if len(chunks) == 0 {
			log.Warn("skipped file without chunks")
			continue
		}

		for i, chunk := range chunks {
			record, err := NewRecord(chunk, name, i)
			if err != nil {
				return nil, fmt.Errorf("%s chunk %d: %w", name, i, err)
			}

			records = append(records, record)
		}

		log.Info("chunks created", zap.Int("count", len(chunks)))
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCorpus, dir)
	}

	log.Info("corpus built",
		zap.Int("files", len(files)),
		zap.Int("chunks", len(records)),
	)

	return records, nil
}

// Fingerprint hashes the salt values together with the name and content of
// every supported file in dir. Any change to the corpus, or to what the
// salt describes, yields a different fingerprint.
func (b *Builder) Fingerprint(dir string, salt ...string) (string, error) {
	files, err := listFiles(dir)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, s := range salt {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	h.Write([]byte(b.chunker.Name()))
	h.Write([]byte{0})

	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("%w: %s: %s", document.ErrRead, name, err.Error())
		}

		sum := sha256.Sum256(content)

		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write(sum[:])
	}

	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// listFiles returns the supported regular files of dir, sorted by name.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s does not exist", ErrEmptyCorpus, dir)
		}

		return nil, fmt.Errorf("%w: %s", document.ErrRead, err.Error())
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		if !document.Supported(entry.Name()) {
			continue
		}

		files = append(files, entry.Name())
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no supported documents in %s", ErrEmptyCorpus, dir)
	}

	sort.Strings(files)
	return files, nil
}
