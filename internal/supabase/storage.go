package supabase

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"

	"aicodegen-backend/internal/generation"
	"aicodegen-backend/internal/models"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimRight(supabaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("supabase url is required for storage")
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

func projectPrefix(userID, projectID uuid.UUID) string {
	return fmt.Sprintf("users/%s/projects/%s", userID.String(), projectID.String())
}

func contentTypeFor(name string) string {
	switch path.Ext(name) {
	case ".ts", ".tsx":
		return "text/typescript"
	case ".json":
		return "application/json"
	default:
		return "text/plain"
	}
}

// ExportArtifact uploads every file of artifact under
// users/{user}/projects/{project}/screens/{component}/.
func (s *StorageClient) ExportArtifact(ctx context.Context, userID, projectID uuid.UUID, artifact generation.Artifact) error {
	dir := path.Join(projectPrefix(userID, projectID), "screens", artifact.Name)
	for _, f := range artifact.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.UploadFile(path.Join(dir, f.Name), []byte(f.Content)); err != nil {
			return err
		}
	}
	return nil
}

// UploadFile writes data at storagePath, replacing any existing object, and
// returns its public URL.
func (s *StorageClient) UploadFile(storagePath string, data []byte) (string, error) {
	contentType := contentTypeFor(storagePath)
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file %s: %w", storagePath, err)
	}
	return s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

// ListProjectFiles walks the project's folder and returns every stored file.
func (s *StorageClient) ListProjectFiles(ctx context.Context, userID, projectID uuid.UUID) ([]models.FileResponse, error) {
	paths, err := s.walk(ctx, projectPrefix(userID, projectID))
	if err != nil {
		return nil, err
	}
	files := make([]models.FileResponse, len(paths))
	for i, p := range paths {
		files[i] = models.FileResponse{Path: p, StorageURL: s.GetPublicURL(p)}
	}
	return files, nil
}

func (s *StorageClient) DeleteProjectFiles(ctx context.Context, userID, projectID uuid.UUID) error {
	paths, err := s.walk(ctx, projectPrefix(userID, projectID))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}
	if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}

// walk lists objects below dir recursively. Folders come back from the
// storage API as entries without an id.
func (s *StorageClient) walk(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := s.client.ListFiles(s.bucket, dir, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var out []string
	for _, e := range entries {
		full := path.Join(dir, e.Name)
		if e.Id == "" {
			nested, err := s.walk(ctx, full)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		out = append(out, full)
	}
	return out, nil
}
