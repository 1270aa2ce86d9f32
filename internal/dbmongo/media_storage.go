package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portalchat/internal/common"
	"portalchat/internal/media"
)

const maxNameAttempts = 5

// GridFSImageStore keeps chat images in a GridFS bucket, addressed by generated filename.
type GridFSImageStore struct {
	gridFS *gridfs.Bucket
}

func NewGridFSImageStore(mongoClient *MongoClient) *GridFSImageStore {
	return &GridFSImageStore{
		gridFS: mongoClient.GridFS,
	}
}

func uploadMetadata(ext common.ImageExt, at time.Time) bson.M {
	return bson.M{
		"content_type": ext.ContentType(),
		"uploaded_at":  at,
	}
}

func (gs *GridFSImageStore) fileIDs(ctx context.Context, name string) ([]primitive.ObjectID, error) {
	cursor, err := gs.gridFS.Find(bson.M{"filename": name})
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", name, err)
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (gs *GridFSImageStore) Save(ctx context.Context, ext common.ImageExt, content io.Reader) (string, error) {
	if !ext.IsValid() {
		return "", media.ErrInvalidName
	}

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := media.NewName(ext)
		existing, err := gs.fileIDs(ctx, name)
		if err != nil {
			return "", err
		}
		if len(existing) > 0 {
			continue
		}

		opts := options.GridFSUpload().SetMetadata(uploadMetadata(ext, time.Now().UTC()))
		stream, err := gs.gridFS.OpenUploadStream(name, opts)
		if err != nil {
			return "", fmt.Errorf("upload failed: %w", err)
		}
		if _, err := io.Copy(stream, content); err != nil {
			stream.Abort()
			stream.Close()
			return "", fmt.Errorf("file copy failed: %w", err)
		}
		if err := stream.Close(); err != nil {
			return "", fmt.Errorf("upload failed: %w", err)
		}
		return name, nil
	}
	return "", fmt.Errorf("no free image name after %d attempts", maxNameAttempts)
}

func (gs *GridFSImageStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := media.CheckName(name); err != nil {
		return nil, err
	}
	stream, err := gs.gridFS.OpenDownloadStreamByName(name)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s", media.ErrImageNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	return stream, nil
}

func (gs *GridFSImageStore) Remove(ctx context.Context, name string) error {
	if err := media.CheckName(name); err != nil {
		return err
	}
	ids, err := gs.fileIDs(ctx, name)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: %s", media.ErrImageNotFound, name)
	}
	for _, id := range ids {
		if err := gs.gridFS.Delete(id); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}
	return nil
}
