package mongodb

import (
	"context"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/goliatone/go-docforms/pkg/document"
)

// Blobs stores uploaded files in a GridFS bucket.
type Blobs struct {
	bucket *gridfs.Bucket
	log    *zap.Logger
}

// BlobsOption configures a Blobs store.
type BlobsOption func(*Blobs)

// WithBlobsLogger attaches a structured logger. Defaults to a no-op logger.
func WithBlobsLogger(log *zap.Logger) BlobsOption {
	return func(b *Blobs) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBlobs opens the default GridFS bucket on the database.
func NewBlobs(db *mongo.Database, opts ...BlobsOption) (*Blobs, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, fmt.Errorf("mongodb: open gridfs bucket: %w", err)
	}
	b := &Blobs{bucket: bucket, log: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// Exists reports whether a file is stored under filename.
func (b *Blobs) Exists(ctx context.Context, filename string) (bool, error) {
	n, err := b.bucket.GetFilesCollection().CountDocuments(ctx, bson.M{"filename": filename})
	if err != nil {
		return false, fmt.Errorf("mongodb: count gridfs files named %q: %w", filename, err)
	}
	return n > 0, nil
}

// Replace removes any files stored under filename and uploads content in
// their place. The bucket API carries no context, so the context deadline is
// forwarded as the bucket's write deadline.
func (b *Blobs) Replace(ctx context.Context, filename, contentType string, content io.Reader) (*document.FileValue, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.bucket.SetWriteDeadline(deadline); err != nil {
			return nil, fmt.Errorf("mongodb: set gridfs write deadline: %w", err)
		}
	}

	if err := b.removeExisting(ctx, filename); err != nil {
		return nil, err
	}

	counted := &countingReader{r: content}
	uploadOpts := options.GridFSUpload().SetMetadata(bson.M{"content_type": contentType})
	id, err := b.bucket.UploadFromStream(filename, counted, uploadOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: upload %q: %w", filename, err)
	}
	b.log.Debug("stored blob",
		zap.String("filename", filename),
		zap.String("id", id.Hex()),
		zap.Int64("bytes", counted.n))

	return &document.FileValue{ID: id, Name: filename, ContentType: contentType, Length: counted.n}, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (b *Blobs) removeExisting(ctx context.Context, filename string) error {
	cursor, err := b.bucket.GetFilesCollection().Find(ctx, bson.M{"filename": filename})
	if err != nil {
		return fmt.Errorf("mongodb: find gridfs files named %q: %w", filename, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var file struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&file); err != nil {
			return fmt.Errorf("mongodb: decode gridfs file: %w", err)
		}
		if err := b.bucket.Delete(file.ID); err != nil {
			return fmt.Errorf("mongodb: delete gridfs file %s: %w", file.ID.Hex(), err)
		}
	}
	return cursor.Err()
}
