package filecatalog

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/model"
)

// MaxFileSize is the upload size ceiling: 50 MiB.
const MaxFileSize = 50 * 1024 * 1024

// allowedExtensions and allowedContentTypes mirror
// original_source's FileService.ALLOWED_EXTENSIONS /
// ALLOWED_CONTENT_TYPES exactly.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".csv":  true,
	".json": true,
	".md":   true,
	".docx": true,
	".pptx": true,
	".xlsx": true,
}

var allowedContentTypes = map[string]bool{
	"application/pdf":     true,
	"text/plain":          true,
	"text/csv":            true,
	"application/json":    true,
	"text/markdown":       true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
}

// validateUpload enforces the size/extension/content-type constraints
// an upload must satisfy before any bytes reach the object store.
func validateUpload(name string, size int64, contentType string) error {
	if size > MaxFileSize {
		return apperr.New(apperr.PayloadTooLarge, fmt.Sprintf("file too large, max %d MiB", MaxFileSize/1024/1024))
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return apperr.New(apperr.BadRequest, "invalid file type: "+ext)
	}
	if contentType != "" && !allowedContentTypes[contentType] {
		return apperr.New(apperr.BadRequest, "invalid content type: "+contentType)
	}
	return nil
}

// checksums computes the md5/sha256/simhash triple original_source
// computes at upload time for integrity verification and duplicate
// detection.
func checksums(content []byte) model.Checksums {
	md5sum := md5.Sum(content)
	sha256sum := sha256.Sum256(content)
	return model.Checksums{
		MD5:     hex.EncodeToString(md5sum[:]),
		SHA256:  hex.EncodeToString(sha256sum[:]),
		SimHash: simHash(content),
	}
}

// simHash realizes original_source's _calculate_simhash, which is
// itself a simplified stand-in ("hash of decoded text", not a real
// simhash) rather than an actual bit-sampling simhash. FNV-1a is the
// stdlib's non-cryptographic 64-bit string hash and reproduces that
// same "just hash the content" behavior faithfully; no simhash or
// near-duplicate-detection library appears anywhere in the example
// pack to ground a third-party choice on, so this one function stays
// on the standard library (see DESIGN.md).
func simHash(content []byte) uint64 {
	h := fnv.New64a()
	h.Write(content)
	return h.Sum64()
}
