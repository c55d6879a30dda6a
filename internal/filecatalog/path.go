package filecatalog

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/model"
)

// buildObjectPath mirrors original_source's _build_minio_path: the
// base path an uploaded File's bytes and metadata.json live under,
// scoped by visibility.
func buildObjectPath(scope model.FileScope, uploaderID, fileID, projectID string) (string, error) {
	switch scope {
	case model.FileScopeSystem:
		return fmt.Sprintf("system/%s", fileID), nil
	case model.FileScopeUserGlobal:
		return fmt.Sprintf("user/%s/global/%s", uploaderID, fileID), nil
	case model.FileScopeUserProject:
		if projectID == "" {
			return "", apperr.New(apperr.BadRequest, "project_id required for user_project scope")
		}
		return fmt.Sprintf("user/%s/project/%s/%s", uploaderID, projectID, fileID), nil
	default:
		return "", apperr.New(apperr.BadRequest, "unknown file scope: "+string(scope))
	}
}

// inputObjectPath returns the path of the uploaded bytes themselves,
// under the base path's 01-input_data phase directory.
func inputObjectPath(basePath, originalName string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(originalName)), ".")
	return fmt.Sprintf("%s/01-input_data/original.%s", basePath, ext)
}

// metadataObjectPath returns the path of a File's companion
// metadata.json document.
func metadataObjectPath(basePath string) string {
	return basePath + "/metadata.json"
}
