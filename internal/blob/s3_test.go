package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kailas-cloud/ekn/internal/db"
)

type fakeS3 struct {
	objects map[string]string
	err     error
	lastKey string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastKey = *in.Key
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.lastKey = *in.Key
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"archives/travel/content.shard": "EKNS"}}
	s := &S3Store{s3: fake, bucket: "b", prefix: "archives/"}
	ctx := context.Background()

	rc, err := s.Open(ctx, "travel/content.shard")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "EKNS" || fake.lastKey != "archives/travel/content.shard" {
		t.Errorf("Open read %q from %q", data, fake.lastKey)
	}

	if _, err := s.Open(ctx, "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing Open: %v", err)
	}
	if ok, err := s.Exists(ctx, "travel/content.shard"); err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
	if ok, err := s.Exists(ctx, "other"); err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v", ok, err)
	}
}

func TestS3Store_Errors(t *testing.T) {
	s := &S3Store{s3: &fakeS3{err: errors.New("access denied")}, bucket: "b"}
	_, err := s.Open(context.Background(), "k")
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpBlobOpen {
		t.Errorf("Open error = %v", err)
	}
	if _, err := s.Exists(context.Background(), "k"); !errors.As(err, &dbErr) || dbErr.Op != db.OpBlobExists {
		t.Errorf("Exists error = %v", err)
	}
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), S3Config{}); err == nil {
		t.Error("expected error")
	}
}
