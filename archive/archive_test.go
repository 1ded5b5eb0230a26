package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/gridsync/gridsync/types"
)

func testRef() PageRef {
	return PageRef{
		RunID:     "run-1",
		GroupID:   "g1",
		Network:   types.NetworkFacebook,
		ProfileID: "p1",
		Window:    types.WriteWindow{Start: "2025-04-01", End: "2025-04-07"},
	}
}

func testPage() []types.RawDataPoint {
	return []types.RawDataPoint{
		{
			Dimensions: map[string]any{"profileId": "p1", "time": "2025-04-01"},
			Metrics:    map[string]any{"likes": 10.0},
		},
	}
}

func TestPageRefKey(t *testing.T) {
	want := "run-1/g1/facebook/p1_2025-04-01_2025-04-07.json"
	if got := testRef().Key(); got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestDirArchiverWritesPage(t *testing.T) {
	dir := t.TempDir()
	a, err := NewDirArchiver(dir)
	if err != nil {
		t.Fatalf("NewDirArchiver: %v", err)
	}

	if err := a.ArchivePage(context.Background(), testRef(), testPage()); err != nil {
		t.Fatalf("ArchivePage: %v", err)
	}

	path := filepath.Join(dir, "run-1", "g1", "facebook", "p1_2025-04-01_2025-04-07.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read archived page: %v", err)
	}
	var page []types.RawDataPoint
	if err := json.Unmarshal(raw, &page); err != nil {
		t.Fatalf("decode archived page: %v", err)
	}
	if len(page) != 1 || page[0].Metrics["likes"] != 10.0 {
		t.Errorf("archived page = %+v", page)
	}
}

type fakeS3 struct {
	keys   []string
	bodies [][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.keys = append(f.keys, *in.Key)
	body, _ := io.ReadAll(in.Body)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchiverKeyPrefix(t *testing.T) {
	fake := &fakeS3{}
	a := &S3Archiver{client: fake, bucket: "b", prefix: "archive/raw"}

	if err := a.ArchivePage(context.Background(), testRef(), testPage()); err != nil {
		t.Fatalf("ArchivePage: %v", err)
	}
	if len(fake.keys) != 1 {
		t.Fatalf("got %d puts, want 1", len(fake.keys))
	}
	want := "archive/raw/run-1/g1/facebook/p1_2025-04-01_2025-04-07.json"
	if fake.keys[0] != want {
		t.Errorf("key = %q, want %q", fake.keys[0], want)
	}
	if !bytes.Contains(fake.bodies[0], []byte(`"likes":10`)) {
		t.Errorf("body = %s", fake.bodies[0])
	}
}

func TestS3ConfigValidate(t *testing.T) {
	cfg := S3Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("missing bucket should fail validation")
	}
	cfg.Bucket = "b"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseS3Path(t *testing.T) {
	tests := []struct {
		path   string
		bucket string
		prefix string
	}{
		{"mybucket", "mybucket", ""},
		{"mybucket/raw/pages", "mybucket", "raw/pages"},
	}
	for _, tt := range tests {
		bucket, prefix := ParseS3Path(tt.path)
		if bucket != tt.bucket || prefix != tt.prefix {
			t.Errorf("ParseS3Path(%q) = %q, %q", tt.path, bucket, prefix)
		}
	}
}
