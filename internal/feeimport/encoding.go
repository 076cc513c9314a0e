package feeimport

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"QuickBill305/internal/config"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding is the result of classifying a text sample.
type Encoding string

const (
	EncodingUTF8        Encoding = "UTF-8"
	EncodingUTF16LE     Encoding = "UTF-16LE"
	EncodingUTF16BE     Encoding = "UTF-16BE"
	EncodingWindows1252 Encoding = "Windows-1252"
	EncodingISO88591    Encoding = "ISO-8859-1"
	EncodingUnknown     Encoding = "unknown"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectEncoding classifies sample into one of the supported encodings. It
// never fails; samples it cannot place are EncodingUnknown.
func DetectEncoding(sample []byte) Encoding {
	switch {
	case len(sample) == 0:
		return EncodingUTF8
	case bytes.HasPrefix(sample, bomUTF8):
		return EncodingUTF8
	case bytes.HasPrefix(sample, bomUTF16LE):
		return EncodingUTF16LE
	case bytes.HasPrefix(sample, bomUTF16BE):
		return EncodingUTF16BE
	}

	if enc, ok := sniffUTF16(sample); ok {
		return enc
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return EncodingUnknown
	}
	if validUTF8Prefix(sample) {
		return EncodingUTF8
	}
	for _, b := range sample {
		if b >= 0x80 && b <= 0x9F {
			return EncodingWindows1252
		}
	}
	return EncodingISO88591
}

// sniffUTF16 looks for ASCII text stored as 16-bit units: every other byte
// is NUL.
func sniffUTF16(sample []byte) (Encoding, bool) {
	if len(sample) < 4 {
		return "", false
	}
	var evenZero, oddZero int
	for i, b := range sample {
		if b != 0 {
			continue
		}
		if i%2 == 0 {
			evenZero++
		} else {
			oddZero++
		}
	}
	half := len(sample) / 2
	threshold := half * 3 / 10
	switch {
	case oddZero >= threshold && oddZero > 2*evenZero:
		return EncodingUTF16LE, true
	case evenZero >= threshold && evenZero > 2*oddZero:
		return EncodingUTF16BE, true
	}
	return "", false
}

// validUTF8Prefix accepts a sample whose only defect is a rune cut off by the
// sample boundary.
func validUTF8Prefix(sample []byte) bool {
	if utf8.Valid(sample) {
		return true
	}
	for i := 1; i <= 3 && i < len(sample); i++ {
		head, tail := sample[:len(sample)-i], sample[len(sample)-i:]
		if utf8.Valid(head) && !utf8.FullRune(tail) {
			return true
		}
	}
	return false
}

func decoderFor(enc Encoding) *encoding.Decoder {
	switch enc {
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	case EncodingWindows1252:
		return charmap.Windows1252.NewDecoder()
	case EncodingISO88591:
		return charmap.ISO8859_1.NewDecoder()
	}
	return nil
}

// NormalizedFile is the UTF-8 view of a staged upload.
type NormalizedFile struct {
	Path     string
	Encoding Encoding
	// transcoded is set when Path is a temporary file owned by the normalizer.
	transcoded bool
}

// Cleanup removes the transcoded copy, if one was written.
func (n NormalizedFile) Cleanup() error {
	if !n.transcoded {
		return nil
	}
	if err := os.Remove(n.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Normalizer transcodes delimited-text uploads to UTF-8.
type Normalizer struct {
	dir        string
	sampleSize int
	log        *zap.Logger
}

func NewNormalizer(dir string, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{dir: dir, sampleSize: config.EncodingSampleSz, log: log}
}

// Normalize returns a UTF-8 file for staged. Spreadsheet containers and UTF-8
// text pass through. An unclassifiable sample is treated as UTF-8.
func (n *Normalizer) Normalize(staged *StagedFile) (NormalizedFile, error) {
	if staged.Ext != "csv" {
		return NormalizedFile{Path: staged.Path}, nil
	}

	src, err := os.Open(staged.Path)
	if err != nil {
		return NormalizedFile{}, newError(KindMalformedFile, "staged file could not be opened", err)
	}
	defer src.Close()

	sample := make([]byte, n.sampleSize)
	read, err := io.ReadFull(src, sample)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return NormalizedFile{}, newError(KindMalformedFile, "staged file could not be read", err)
	}
	sample = sample[:read]

	enc := DetectEncoding(sample)
	switch enc {
	case EncodingUTF8:
		return NormalizedFile{Path: staged.Path, Encoding: enc}, nil
	case EncodingUnknown:
		n.log.Warn("encoding not recognised, assuming UTF-8",
			zap.String("file", staged.OriginalName),
			zap.Int("sample_bytes", read),
		)
		return NormalizedFile{Path: staged.Path, Encoding: EncodingUTF8}, nil
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return NormalizedFile{}, newError(KindMalformedFile, "staged file could not be rewound", err)
	}
	dst, err := os.CreateTemp(n.dir, "import-*.utf8.csv")
	if err != nil {
		return NormalizedFile{}, newError(KindMalformedFile, "could not create transcoding file", err)
	}
	written, copyErr := io.Copy(dst, transform.NewReader(src, decoderFor(enc)))
	closeErr := dst.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(dst.Name())
		return NormalizedFile{}, newError(KindMalformedFile, fmt.Sprintf("could not transcode from %s", enc), copyErr)
	}

	n.log.Info("upload transcoded to UTF-8",
		zap.String("file", staged.OriginalName),
		zap.String("from", string(enc)),
		zap.Int64("source_bytes", staged.Size),
		zap.Int64("utf8_bytes", written),
	)
	return NormalizedFile{Path: dst.Name(), Encoding: enc, transcoded: true}, nil
}
