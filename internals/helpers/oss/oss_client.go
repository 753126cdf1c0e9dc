package helper

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"schoolku_backend/internals/configs"
)

/* ==============================
   OSS client untuk dokumen upload
   ============================== */

var allowedDocExt = map[string]bool{
	".pdf": true, ".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

func newBucket() (*oss.Bucket, error) {
	client, err := oss.New(configs.OSSEndpoint, configs.OSSAccessKeyID, configs.OSSAccessSecret)
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	bucket, err := client.Bucket(configs.OSSBucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket: %w", err)
	}
	return bucket, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// UploadDocument menyimpan satu dokumen admissions ke OSS dan
// mengembalikan URL publiknya. Key: <schoolID>/admissions/<ts>-<rand><ext>
func UploadDocument(schoolID string, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(path.Ext(fh.Filename))
	if !allowedDocExt[ext] {
		return "", fmt.Errorf("ekstensi %q tidak diizinkan", ext)
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	bucket, err := newBucket()
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/admissions/%d-%s%s", schoolID, time.Now().Unix(), randomHex(6), ext)
	if err := bucket.PutObject(key, f); err != nil {
		return "", fmt.Errorf("oss put: %w", err)
	}

	return fmt.Sprintf("https://%s.%s/%s", configs.OSSBucket, configs.OSSEndpoint, key), nil
}
