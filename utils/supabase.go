package utils

import (
	"bytes"
	"path"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseUploader đẩy file export lên bucket Supabase Storage.
type SupabaseUploader struct {
	client *storage.Client
	bucket string
}

func NewSupabaseUploader(supabaseURL, supabaseKey, bucket string) *SupabaseUploader {
	return &SupabaseUploader{
		client: storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil),
		bucket: bucket,
	}
}

// Upload ghi đè (upsert) object tại folder/filename và trả về public URL.
func (u *SupabaseUploader) Upload(data []byte, folder, filename, contentType string) (string, error) {
	objectPath := filename
	if folder != "" {
		objectPath = path.Join(folder, filename)
	}

	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}

	if _, err := u.client.UploadFile(u.bucket, objectPath, bytes.NewReader(data), options); err != nil {
		return "", err
	}

	publicURL := u.client.GetPublicUrl(u.bucket, objectPath)
	return publicURL.SignedURL, nil
}
