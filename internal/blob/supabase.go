package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"
)

// Supabase stores objects in a Supabase Storage bucket.
type Supabase struct {
	client *storage.Client
	bucket string
}

// NewSupabase creates a store on the given project URL and service key.
func NewSupabase(projectURL, serviceKey, bucket string) *Supabase {
	if bucket == "" {
		bucket = "wortschatz"
	}
	return &Supabase{
		client: storage.NewClient(strings.TrimRight(projectURL, "/")+"/storage/v1", serviceKey, nil),
		bucket: bucket,
	}
}

// Put uploads data under key, overwriting any existing object.
func (s *Supabase) Put(ctx context.Context, key string, data []byte, contentType string) error {
	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", key, err)
	}
	return nil
}

// Get downloads the object under key.
func (s *Supabase) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, nil
}

// Delete removes the object under key.
func (s *Supabase) Delete(ctx context.Context, key string) error {
	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// DeleteOlderThan removes objects under prefix older than maxAge. The
// Storage list endpoint returns one folder level at a time, so nested
// prefixes (one folder per owner under exports/) are walked folder by
// folder before the cutoff is applied.
func (s *Supabase) DeleteOlderThan(ctx context.Context, prefix string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	var stale []string
	folders := []string{strings.TrimSuffix(prefix, "/")}
	for len(folders) > 0 {
		folder := folders[0]
		folders = folders[1:]

		objects, err := s.client.ListFiles(s.bucket, folder, storage.FileSearchOptions{})
		if err != nil {
			return 0, fmt.Errorf("failed to list blobs under %s: %w", folder, err)
		}

		keys, subfolders := partitionListing(folder, objects, cutoff)
		stale = append(stale, keys...)
		folders = append(folders, subfolders...)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if _, err := s.client.RemoveFile(s.bucket, stale); err != nil {
		return 0, fmt.Errorf("failed to sweep blobs under %s: %w", prefix, err)
	}
	return len(stale), nil
}

// partitionListing splits one folder listing into keys of objects older
// than cutoff and subfolders still to walk. Folder placeholders carry no
// object id and no timestamps; objects with an unparseable creation time
// are left alone rather than swept.
func partitionListing(folder string, objects []storage.FileObject, cutoff time.Time) (stale, subfolders []string) {
	for _, obj := range objects {
		path := folder + "/" + obj.Name
		if obj.Id == "" {
			subfolders = append(subfolders, path)
			continue
		}
		created, err := time.Parse(time.RFC3339, obj.CreatedAt)
		if err != nil || created.After(cutoff) {
			continue
		}
		stale = append(stale, path)
	}
	return stale, subfolders
}
